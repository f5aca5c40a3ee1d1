package models

// SourceDocument is a crawled page and the text extracted from it. It only
// lives for the duration of an ingestion run.
type SourceDocument struct {
	URL     string
	Title   string
	Content string
}

// Chunk is a bounded slice of a SourceDocument's text. ID is assigned by the
// ingestion pipeline and is zero until then.
type Chunk struct {
	ID   int64
	URL  string
	Text string
}

// Payload field names stored alongside every vector.
const (
	PayloadURL     = "url"
	PayloadText    = "text"
	PayloadChunkID = "chunk_id"
)

// Point is the unit persisted in the vector store.
type Point struct {
	ID      int64
	Vector  []float32
	URL     string
	Text    string
	ChunkID int64
}

// NewPoint builds the stored form of an embedded chunk. The chunk id doubles
// as the point id.
func NewPoint(chunk Chunk, vector []float32) Point {
	return Point{
		ID:      chunk.ID,
		Vector:  vector,
		URL:     chunk.URL,
		Text:    chunk.Text,
		ChunkID: chunk.ID,
	}
}

// Payload returns the point metadata in the shape written to the store.
func (p Point) Payload() map[string]interface{} {
	return map[string]interface{}{
		PayloadURL:     p.URL,
		PayloadText:    p.Text,
		PayloadChunkID: p.ChunkID,
	}
}

// SearchHit is a stored point returned from a similarity search.
type SearchHit struct {
	ID    int64
	Score float32
	URL   string
	Text  string
}
