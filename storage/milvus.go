package storage

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"studyassist/core"
)

// MilvusStore is the Milvus backend. It is deliberately used as a plain
// row store: Scan issues a filtered Query with a row limit and never
// calls vector Search, so an index can never change the result set the
// in-process ranker sees. The FLAT index exists only because Milvus
// requires one to load a collection.
type MilvusStore struct {
	mc client.Client
}

func NewMilvusStore(ctx context.Context, addr string) (*MilvusStore, error) {
	mc, err := client.NewClient(ctx, client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	s := &MilvusStore{mc: mc}
	for _, table := range []string{core.TableVideo, core.TablePDF} {
		if err := s.ensureCollection(ctx, table); err != nil {
			mc.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context, coll string) error {
	has, err := s.mc.HasCollection(ctx, coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema().WithName(coll)
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("source_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(255))
		schema.WithField(entity.NewField().WithName("source_type").WithDataType(entity.FieldTypeVarChar).WithMaxLength(16))
		schema.WithField(entity.NewField().WithName("title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(500))
		schema.WithField(entity.NewField().WithName("chunk_id").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192))
		schema.WithField(entity.NewField().WithName("start_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("end_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("page_number").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("embedding").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(embeddingDim)))
		if err := s.mc.CreateCollection(ctx, schema, 2); err != nil {
			return fmt.Errorf("create collection %s: %w", coll, err)
		}
	}
	idx, err := entity.NewIndexFlat(entity.COSINE)
	if err != nil {
		return fmt.Errorf("new flat index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, coll, "embedding", idx, false, client.WithIndexName("idx_embedding")); err != nil {
		return fmt.Errorf("create index on %s: %w", coll, err)
	}
	if err := s.mc.LoadCollection(ctx, coll, false); err != nil {
		return fmt.Errorf("load collection %s: %w", coll, err)
	}
	return nil
}

func (s *MilvusStore) Insert(ctx context.Context, table string, records []core.EmbeddingRecord) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	n := len(records)
	sourceIDs := make([]string, n)
	sourceTypes := make([]string, n)
	titles := make([]string, n)
	chunkIDs := make([]int64, n)
	contents := make([]string, n)
	startTimes := make([]float64, n)
	endTimes := make([]float64, n)
	pageNumbers := make([]int64, n)
	vectors := make([][]float32, n)
	for i, r := range records {
		sourceIDs[i] = r.SourceID
		sourceTypes[i] = r.SourceType
		titles[i] = r.Title
		chunkIDs[i] = int64(r.ChunkID)
		contents[i] = r.Text
		startTimes[i] = r.StartTime
		endTimes[i] = r.EndTime
		pageNumbers[i] = int64(r.PageNumber)
		vectors[i] = r.Embedding
	}
	_, err := s.mc.Insert(ctx, table, "",
		entity.NewColumnVarChar("source_id", sourceIDs),
		entity.NewColumnVarChar("source_type", sourceTypes),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnInt64("chunk_id", chunkIDs),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnDouble("start_time", startTimes),
		entity.NewColumnDouble("end_time", endTimes),
		entity.NewColumnInt64("page_number", pageNumbers),
		entity.NewColumnFloatVector("embedding", embeddingDim, vectors),
	)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

var scanFields = []string{"source_id", "source_type", "title", "chunk_id", "content", "start_time", "end_time", "page_number", "embedding"}

func (s *MilvusStore) Scan(ctx context.Context, table string, limit int) ([]core.EmbeddingRecord, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return s.query(ctx, table, "chunk_id >= 0", limit)
}

func (s *MilvusStore) query(ctx context.Context, table, expr string, limit int) ([]core.EmbeddingRecord, error) {
	res, err := s.mc.Query(ctx, table, nil, expr, scanFields, client.WithLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	cols := map[string]entity.Column{}
	rowCount := 0
	for _, col := range res {
		cols[col.Name()] = col
		rowCount = col.Len()
	}

	out := make([]core.EmbeddingRecord, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		var r core.EmbeddingRecord
		ok := true
		if v, err := cols["source_id"].GetAsString(i); err == nil {
			r.SourceID = v
		} else {
			ok = false
		}
		if v, err := cols["source_type"].GetAsString(i); err == nil {
			r.SourceType = v
		}
		if v, err := cols["title"].GetAsString(i); err == nil {
			r.Title = v
		}
		if v, err := cols["chunk_id"].GetAsInt64(i); err == nil {
			r.ChunkID = int(v)
		}
		if v, err := cols["content"].GetAsString(i); err == nil {
			r.Text = v
		} else {
			ok = false
		}
		if v, err := cols["start_time"].GetAsDouble(i); err == nil {
			r.StartTime = v
		}
		if v, err := cols["end_time"].GetAsDouble(i); err == nil {
			r.EndTime = v
		}
		if v, err := cols["page_number"].GetAsInt64(i); err == nil {
			r.PageNumber = int(v)
		}
		if vecCol, isVec := cols["embedding"].(*entity.ColumnFloatVector); isVec && i < vecCol.Len() {
			r.Embedding = vecCol.Data()[i]
		}
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MilvusStore) DeleteSource(ctx context.Context, table, sourceID string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	expr := fmt.Sprintf("source_id == %q", sourceID)
	res, err := s.mc.Query(ctx, table, nil, expr, []string{"chunk_id"})
	if err != nil {
		return 0, fmt.Errorf("count source in %s: %w", table, err)
	}
	count := 0
	for _, col := range res {
		count = col.Len()
	}
	if err := s.mc.Delete(ctx, table, "", expr); err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return count, nil
}

func (s *MilvusStore) HasSource(ctx context.Context, table, sourceID string) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	expr := fmt.Sprintf("source_id == %q", sourceID)
	res, err := s.mc.Query(ctx, table, nil, expr, []string{"chunk_id"}, client.WithLimit(1))
	if err != nil {
		return false, fmt.Errorf("check source in %s: %w", table, err)
	}
	for _, col := range res {
		if col.Len() > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *MilvusStore) Close(context.Context) error {
	return s.mc.Close()
}
