package entity

// DocumentMetadata is the enrichment result attached to a document. All
// fields are optional; enrichment never blocks ingestion.
type DocumentMetadata struct {
	DocumentType string   `json:"document_type,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Language     string   `json:"language,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
}

// ChunkMetadata is stored alongside each chunk embedding and is the target
// of jsonb containment filters at retrieval time. Chunk position and token
// count are duplicated from the row so filters and prompts can use them
// without a second lookup.
type ChunkMetadata struct {
	FileName        string   `json:"file_name,omitempty"`
	ChunkIndex      int      `json:"chunk_index"`
	TotalChunks     int      `json:"total_chunks,omitempty"`
	ChunkTokenCount int      `json:"chunk_token_count,omitempty"`
	DocumentType    string   `json:"document_type,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Topics          []string `json:"topics,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Language        string   `json:"language,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}
