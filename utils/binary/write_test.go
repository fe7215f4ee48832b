package binary

import (
	"bytes"
	"encoding/binary"
)

func (s *BinarySuite) TestWrite() {
	expected := bytes.NewBuffer(nil)
	err := binary.Write(expected, binary.BigEndian, int64(42))
	s.NoError(err)
	err = binary.Write(expected, binary.BigEndian, int32(42))
	s.NoError(err)

	buf := bytes.NewBuffer(nil)
	err = Write(buf, int64(42), int32(42))
	s.NoError(err)
	s.Equal(expected, buf)
}

func (s *BinarySuite) TestWriteUint64() {
	buf := bytes.NewBuffer(nil)
	err := WriteUint64(buf, 1<<40|7)
	s.NoError(err)
	s.Equal([]byte{0, 0, 1, 0, 0, 0, 0, 7}, buf.Bytes())
}

func (s *BinarySuite) TestWriteUint8() {
	buf := bytes.NewBuffer(nil)
	err := WriteUint8(buf, 1)
	s.NoError(err)
	s.Equal([]byte{1}, buf.Bytes())
}
