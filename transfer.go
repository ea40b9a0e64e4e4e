// go-gpiocom
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-gpiocom.
//
// go-gpiocom is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-gpiocom is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-gpiocom; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package gpiocom

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileHeader precedes the chunk frames of one file:
// u16 BE name length ++ UTF-8 name ++ u32 BE size.
type FileHeader struct {
	Name string
	Size uint32
}

// MarshalBinary encodes the header as a frame payload.
func (h FileHeader) MarshalBinary() ([]byte, error) {
	if len(h.Name) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: name is %d bytes", ErrFileTooLarge, len(h.Name))
	}

	out := make([]byte, 0, 2+len(h.Name)+4)
	out = binary.BigEndian.AppendUint16(out, uint16(len(h.Name))) //nolint:gosec // bounded above
	out = append(out, h.Name...)
	out = binary.BigEndian.AppendUint32(out, h.Size)
	return out, nil
}

// UnmarshalBinary decodes a header payload. The name must be a single path
// element so a received file cannot escape the output directory.
func (h *FileHeader) UnmarshalBinary(p []byte) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: file header is %d bytes", ErrMalformedHeader, len(p))
	}
	nameLen := int(binary.BigEndian.Uint16(p))
	if len(p) != 2+nameLen+4 {
		return fmt.Errorf("%w: file header is %d bytes for a %d byte name", ErrMalformedHeader, len(p), nameLen)
	}

	name := string(p[2 : 2+nameLen])
	if err := checkFileName(name); err != nil {
		return err
	}

	h.Name = name
	h.Size = binary.BigEndian.Uint32(p[2+nameLen:])
	return nil
}

func checkFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: file name %q", ErrMalformedHeader, name)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: file name is not UTF-8", ErrMalformedHeader)
	case strings.ContainsAny(name, "/\\\x00"), filepath.Base(name) != name:
		return fmt.Errorf("%w: file name %q is not a plain name", ErrMalformedHeader, name)
	}
	return nil
}

// FolderHeader precedes the files of a folder transfer: u16 BE file count.
type FolderHeader struct {
	Count int
}

// MarshalBinary encodes the header as a frame payload.
func (h FolderHeader) MarshalBinary() ([]byte, error) {
	if h.Count < 0 || h.Count > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d files", ErrFileTooLarge, h.Count)
	}
	return binary.BigEndian.AppendUint16(nil, uint16(h.Count)), nil
}

// UnmarshalBinary decodes a header payload.
func (h *FolderHeader) UnmarshalBinary(p []byte) error {
	if len(p) != 2 {
		return fmt.Errorf("%w: folder header is %d bytes", ErrMalformedHeader, len(p))
	}
	h.Count = int(binary.BigEndian.Uint16(p))
	return nil
}
