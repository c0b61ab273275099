package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// byteOrder is used for every integer on the wire.
var byteOrder = binary.LittleEndian

var errMalformed = errors.New("errMalformed")

// IsMalformedError reports whether err came from truncated or
// non-canonical input.
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}

// WriteElements writes each element in order. Supported elements are the
// fixed-size integers, bool and the hash types.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteElement writes a single element. See WriteElements.
func WriteElement(w io.Writer, element interface{}) error {
	var raw []byte
	switch e := element.(type) {
	case uint8, uint16, uint32, uint64, int64:
		return errors.WithStack(binary.Write(w, byteOrder, e))
	case bool:
		raw = []byte{0}
		if e {
			raw[0] = 1
		}
	case externalapi.DomainHash:
		raw = e.ByteSlice()
	case *externalapi.DomainHash:
		raw = e.ByteSlice()
	case externalapi.DomainTransactionID:
		raw = e.ByteSlice()
	default:
		return errors.Errorf("no encoding for type %T", element)
	}
	_, err := w.Write(raw)
	return errors.WithStack(err)
}

// ReadElements reads into each element pointer in order.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads into a single element pointer. See ReadElements.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8, *uint16, *uint32, *uint64, *int64:
		return errors.WithStack(binary.Read(r, byteOrder, e))

	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return errors.WithStack(err)
		}
		if b[0] > 1 {
			return errors.Wrapf(errMalformed, "bool encoded as %#x", b[0])
		}
		*e = b[0] == 1
		return nil

	case *externalapi.DomainHash:
		hash, err := readHash(r)
		if err != nil {
			return err
		}
		*e = *hash
		return nil

	case *externalapi.DomainTransactionID:
		hash, err := readHash(r)
		if err != nil {
			return err
		}
		*e = externalapi.DomainTransactionID(*hash)
		return nil

	default:
		return errors.Errorf("no decoding for type %T", element)
	}
}

func readHash(r io.Reader) (*externalapi.DomainHash, error) {
	var hashBytes [externalapi.DomainHashSize]byte
	if _, err := io.ReadFull(r, hashBytes[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	return externalapi.NewDomainHashFromByteArray(&hashBytes), nil
}

// WriteVarBytes writes data preceded by its length as a uint64.
func WriteVarBytes(w io.Writer, data []byte) error {
	err := WriteElement(w, uint64(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.WithStack(err)
}

// ReadVarBytes reads what WriteVarBytes wrote. A length above maxLength
// is malformed and nothing past the length is read.
func ReadVarBytes(r io.Reader, maxLength uint64, fieldName string) ([]byte, error) {
	var length uint64
	err := ReadElement(r, &length)
	if err != nil {
		return nil, err
	}
	if length > maxLength {
		return nil, errors.Wrapf(errMalformed, "%s is %d bytes long, above the limit of %d",
			fieldName, length, maxLength)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}
