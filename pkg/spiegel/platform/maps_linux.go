//go:build linux

package platform

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// ReadProcMaps parses /proc/<pid>/maps, or /proc/self/maps when pid is 0.
func ReadProcMaps(pid int) ([]Mapping, error) {
	path := "/proc/self/maps"
	if pid != 0 {
		path = fmt.Sprintf("/proc/%d/maps", pid)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, utils.MakeError(ErrMapFailure, "opening %s: %v", path, err)
	}
	defer f.Close()

	var mappings []Mapping
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m, ok, err := parseMapsLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		if ok {
			mappings = append(mappings, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.MakeError(ErrMapFailure, "reading %s: %v", path, err)
	}
	return mappings, nil
}

// parseMapsLine decodes one "lo-hi perms offset dev inode [path]" record.
// A blank path (anonymous mapping) is reported with ok=true and an empty
// Path; malformed lines are skipped rather than failing the whole read,
// since /proc/self/maps occasionally carries synthetic pseudo-mappings
// ([vdso], [stack], ...) with unusual formatting.
func parseMapsLine(line string) (Mapping, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Mapping{}, false, nil
	}

	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return Mapping{}, false, nil
	}
	lo, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return Mapping{}, false, nil
	}
	hi, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return Mapping{}, false, nil
	}

	perms := fields[1]
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Mapping{}, false, nil
	}

	m := Mapping{
		Lo:         lo,
		Hi:         hi,
		FileOffset: offset,
		Read:       strings.Contains(perms, "r"),
		Write:      strings.Contains(perms, "w"),
		Exec:       strings.Contains(perms, "x"),
		Shared:     strings.Contains(perms, "s"),
	}
	if len(fields) >= 6 {
		m.Path = fields[5]
	}
	return m, true, nil
}

// SelfMaps returns the calling process's own memory map.
func SelfMaps() ([]Mapping, error) {
	return ReadProcMaps(0)
}

// SelfExe returns the path to the executable backing the calling process.
func SelfExe() (string, error) {
	path, err := os.Readlink("/proc/self/exe")
	if err != nil {
		return "", utils.MakeError(ErrMapFailure, "reading /proc/self/exe: %v", err)
	}
	return path, nil
}
