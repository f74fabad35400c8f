package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	bodyEncoder = mustEncoder()
	bodyDecoder = mustDecoder()
)

func mustEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("zstd encoder: %v", err))
	}
	return enc
}

func mustDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("zstd decoder: %v", err))
	}
	return dec
}

// CompressedText is markdown stored zstd-compressed in a binary column and
// exposed as a plain string everywhere else.
type CompressedText string

func (t CompressedText) String() string {
	return string(t)
}

// Value implements driver.Valuer.
func (t CompressedText) Value() (driver.Value, error) {
	return bodyEncoder.EncodeAll([]byte(t), nil), nil
}

// Scan implements sql.Scanner.
func (t *CompressedText) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("compressed text: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*t = ""
		return nil
	}

	out, err := bodyDecoder.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("compressed text: %w", err)
	}
	*t = CompressedText(out)
	return nil
}

func (CompressedText) GormDataType() string {
	return "bytes"
}

func (CompressedText) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "bytea"
	case "mysql":
		return "longblob"
	default:
		return "blob"
	}
}
