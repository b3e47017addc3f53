// Package ar reads and writes the common ("BSD"/System V-compatible,
// unextended) Unix ar(1) archive format used by Debian .deb packages.
// The standard library has no archive/ar, so this is grounded directly
// on the wire-format description in spec.md §6: a fixed 8-byte magic
// followed by a sequence of 60-byte member headers, each followed by
// the member's data padded to an even length.
package ar

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const magic = "!<arch>\n"

// Member is one entry of an ar archive.
type Member struct {
	Name  string
	Mtime int64
	UID   int
	GID   int
	Mode  int64
	Data  []byte
}

// Read parses every member of an ar archive from r, in file order.
func Read(r io.Reader) ([]Member, error) {
	br := bufio.NewReader(r)

	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(br, magicBuf); err != nil {
		return nil, fmt.Errorf("ar: reading magic: %w", err)
	}
	if string(magicBuf) != magic {
		return nil, fmt.Errorf("ar: bad magic %q", magicBuf)
	}

	var members []Member
	for {
		header := make([]byte, 60)
		_, err := io.ReadFull(br, header)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ar: reading member header: %w", err)
		}

		name := strings.TrimRight(string(header[0:16]), " ")
		// GNU-style names carry a trailing '/' terminator.
		name = strings.TrimSuffix(name, "/")
		mtime, err := strconv.ParseInt(strings.TrimSpace(string(header[16:28])), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ar: member %q: bad mtime: %w", name, err)
		}
		uid, _ := strconv.Atoi(strings.TrimSpace(string(header[28:34])))
		gid, _ := strconv.Atoi(strings.TrimSpace(string(header[34:40])))
		mode, err := strconv.ParseInt(strings.TrimSpace(string(header[40:48])), 8, 64)
		if err != nil {
			return nil, fmt.Errorf("ar: member %q: bad mode: %w", name, err)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ar: member %q: bad size: %w", name, err)
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("ar: member %q: reading data: %w", name, err)
		}
		if size%2 != 0 {
			if _, err := br.Discard(1); err != nil {
				return nil, fmt.Errorf("ar: member %q: discarding padding: %w", name, err)
			}
		}

		members = append(members, Member{Name: name, Mtime: mtime, UID: uid, GID: gid, Mode: mode, Data: data})
	}
	return members, nil
}

// Write serializes members to w in the given order.
func Write(w io.Writer, members []Member) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	for _, m := range members {
		header := make([]byte, 60)
		copy(header, padRight(m.Name+"/", 16))
		copy(header[16:28], padRight(strconv.FormatInt(m.Mtime, 10), 12))
		copy(header[28:34], padRight(strconv.Itoa(m.UID), 6))
		copy(header[34:40], padRight(strconv.Itoa(m.GID), 6))
		copy(header[40:48], padRight(strconv.FormatInt(m.Mode, 8), 8))
		copy(header[48:58], padRight(strconv.Itoa(len(m.Data)), 10))
		header[58] = '`'
		header[59] = '\n'

		if _, err := w.Write(header); err != nil {
			return err
		}
		if _, err := w.Write(m.Data); err != nil {
			return err
		}
		if len(m.Data)%2 != 0 {
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return err
			}
		}
	}
	return nil
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
