package system

import (
	"bufio"
	"io/ioutil"
	"os"
	"strings"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// ReadFile returns the contents of the file at path
func ReadFile(path string) (string, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return "", trace.ConvertSystemError(err)
	}
	return string(data), nil
}

// ReadItems returns the first whitespace-separated field of every
// non-empty line of the file at path.
// Lines may carry additional information after the item which is ignored
func ReadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		items = append(items, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	log.Debugf("Read %v items from %v.", len(items), path)
	return items, nil
}

// SplitList splits a comma-separated list dropping empty items
func SplitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
