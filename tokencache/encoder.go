package tokencache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	entryFormatVersionCurrent = 1
	maxJWTSize                = 16 << 10
)

var errInvalidEntry = errors.New("invalid cache entry")

// encodeEntry writes: version(1) | expiresAt ms (8) | insertedAt ms (8) | jwt len (2) | jwt.
func encodeEntry(token Token, insertedAt time.Time) ([]byte, error) {
	if len(token.JWT) == 0 || len(token.JWT) > maxJWTSize {
		return nil, errors.New("jwt size out of range")
	}

	var buf bytes.Buffer
	buf.Grow(19 + len(token.JWT))
	buf.WriteByte(entryFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, token.ExpiresAt.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, insertedAt.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(token.JWT))); err != nil {
		return nil, err
	}
	buf.WriteString(token.JWT)

	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (Token, time.Time, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Token{}, time.Time{}, err
	}
	if version != entryFormatVersionCurrent {
		return Token{}, time.Time{}, errInvalidEntry
	}

	var expiresAt, insertedAt int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return Token{}, time.Time{}, err
	}
	if err := binary.Read(reader, binary.BigEndian, &insertedAt); err != nil {
		return Token{}, time.Time{}, err
	}

	var jwtLen uint16
	if err := binary.Read(reader, binary.BigEndian, &jwtLen); err != nil {
		return Token{}, time.Time{}, err
	}
	if jwtLen == 0 {
		return Token{}, time.Time{}, errInvalidEntry
	}
	raw := make([]byte, jwtLen)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return Token{}, time.Time{}, err
	}
	if reader.Len() != 0 {
		return Token{}, time.Time{}, errInvalidEntry
	}

	return Token{JWT: string(raw), ExpiresAt: time.UnixMilli(expiresAt)}, time.UnixMilli(insertedAt), nil
}
