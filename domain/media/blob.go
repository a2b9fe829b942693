package media

// OutputBlob is an encoded audio file handed back to the caller
type OutputBlob struct {
	Data     []byte
	MIMEType string
}

// Size returns the encoded byte length
func (b *OutputBlob) Size() int64 {
	return int64(len(b.Data))
}
