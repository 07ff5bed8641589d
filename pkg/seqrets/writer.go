package seqrets

// CHUNKED WRITE SEQUENCE:
// ERASE_DATA, SET_TYPE, SET_LABEL (when non-empty), then one STORE_DATA per chunk with
// P1 = chunk index and P2 = 1 on the last chunk. The card places chunk i at offset i*240.
//
// The sequence is not atomic. A failure after ERASE_DATA leaves the card erased or
// partially written, and callers must retry the whole write.

// WriteBlob replaces the card content with data, tagged with typ and label.
func WriteBlob(s *Session, data []byte, typ byte, label string) error {
	chunks := splitChunks(data)
	if len(chunks) > maxChunks {
		return newError(KindCapacityExceeded, nil, "%d bytes need %d chunks, at most %d are addressable", len(data), len(chunks), maxChunks)
	}

	if _, err := s.Transmit(INS_ERASE_DATA, 0x00, 0x00, nil); err != nil {
		return err
	}
	if _, err := s.Transmit(INS_SET_TYPE, typ, 0x00, nil); err != nil {
		return err
	}
	if label != "" {
		if _, err := s.Transmit(INS_SET_LABEL, 0x00, 0x00, truncateLabel(label)); err != nil {
			return err
		}
	}

	for i, chunk := range chunks {
		var last byte
		if i == len(chunks)-1 {
			last = 0x01
		}
		if _, err := s.Transmit(INS_STORE_DATA, byte(i), last, chunk); err != nil {
			return err
		}
	}
	return nil
}

// splitChunks cuts data into ChunkSize pieces. The slices alias data.
func splitChunks(data []byte) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := min(len(data), ChunkSize)
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// truncateLabel cuts label to MaxLabelLength bytes.
func truncateLabel(label string) []byte {
	b := []byte(label)
	if len(b) > MaxLabelLength {
		b = b[:MaxLabelLength]
	}
	return b
}
