package core

// ========== source kinds and tables ==========

const (
	SourceVideo = "video"
	SourcePDF   = "pdf"
)

const (
	TableVideo = "video_embeddings"
	TablePDF   = "pdf_embeddings"
)

// ========== ingestion-side records ==========

// Segment is one transcript segment with second-resolution timestamps.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Page is one page of extracted PDF text.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ChunkSpan is a window over a joined text with its character range,
// before any metadata is attached.
type ChunkSpan struct {
	Text      string `json:"text"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// ChunkRecord is a chunk with full source metadata, ready to embed.
// Video chunks carry StartTime/EndTime; PDF chunks carry PageNumber.
type ChunkRecord struct {
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	Title      string  `json:"title,omitempty"`
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"start_time,omitempty"`
	EndTime    float64 `json:"end_time,omitempty"`
	PageNumber int     `json:"page_number,omitempty"`
}

// EmbeddingRecord is a stored chunk plus its embedding vector.
type EmbeddingRecord struct {
	ChunkRecord
	Embedding []float32 `json:"embedding"`
}

// ========== query-side records ==========

// ScoredDocument is a candidate chunk with its cosine score against the
// query embedding.
type ScoredDocument struct {
	EmbeddingRecord
	Score float64 `json:"score"`
}

// SourceRef is the citation form of a chunk: where the answer text came
// from, with a human-readable location (MM:SS for video, page for PDF).
type SourceRef struct {
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	Title      string  `json:"title,omitempty"`
	Location   string  `json:"location"`
	Score      float64 `json:"score"`
}

// ========== conversation records ==========

// Turn is one message in a session's conversation buffer.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRecord is one persisted user/assistant exchange.
type ChatRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	CreatedAt   string `json:"created_at"`
}
