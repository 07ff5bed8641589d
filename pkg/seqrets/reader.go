package seqrets

// Blob is the raw content of the data slot.
type Blob struct {
	Data  []byte
	Type  byte
	Label string
}

// ReadBlob reads the status header then pulls READ_DATA chunks until the declared
// length is satisfied.
func ReadBlob(s *Session) (Blob, Header, error) {
	h, err := readHeader(s)
	if err != nil {
		return Blob{}, Header{}, err
	}

	blob := Blob{Type: h.Type, Label: h.Label}
	if h.DataLength == 0 {
		return blob, h, nil
	}

	data, err := readChunks(s, h.DataLength)
	if err != nil {
		return Blob{}, h, err
	}
	blob.Data = data
	return blob, h, nil
}

func readChunks(s *Session, length int) ([]byte, error) {
	data := make([]byte, 0, length)

	for i := 0; len(data) < length; i++ {
		if i >= MaxReadChunks {
			return nil, newError(KindCorrupted, nil, "read %d of %d bytes in %d chunks", len(data), length, MaxReadChunks)
		}

		chunk, err := s.Transmit(INS_READ_DATA, byte(i), 0x00, nil)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		data = append(data, chunk...)
	}

	if len(data) > length {
		data = data[:length]
	}
	return data, nil
}
