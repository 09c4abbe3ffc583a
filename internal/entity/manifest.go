package entity

// ManifestEntry is one line of the JSONL manifest submitted to the batch
// inference service. CustomData carries the source image id and is echoed
// back unchanged in the batch output, which is how output rows are mapped
// back to images.
type ManifestEntry struct {
	ModelID    string        `json:"modelId"`
	Input      ManifestInput `json:"input"`
	CustomData string        `json:"customData"`
}

// ManifestInput is the per-record inference payload.
type ManifestInput struct {
	Text  string        `json:"text"`
	Image ManifestImage `json:"image"`
}

// ManifestImage declares the image format explicitly; the external parser
// does not sniff bytes.
type ManifestImage struct {
	Format string      `json:"format"`
	Source ImageSource `json:"source"`
}

// ImageSource holds base64-encoded image bytes. Standard encoding with no
// line wrapping, so each manifest line stays a single line.
type ImageSource struct {
	Bytes string `json:"bytes"`
}

// BatchOutputRecord is one line of the batch job's JSONL output.
type BatchOutputRecord struct {
	CustomData string      `json:"customData"`
	Output     BatchOutput `json:"output"`
}

// BatchOutput wraps the model's response; Text is itself a JSON-encoded
// document with the OCR result fields.
type BatchOutput struct {
	Text string `json:"text"`
}
