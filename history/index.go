package history

import (
	"context"
	"fmt"
	"strings"

	"whisper-bridge/domain"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
)

// Index is a bluge full-text index over message bodies. Both the original
// text and every translation are searchable, so a query matches no matter
// which language the searcher read the message in.
type Index struct {
	writer *bluge.Writer
}

func OpenIndex(path string) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("opening search index at %s: %w", path, err)
	}
	return &Index{writer: writer}, nil
}

func (ix *Index) Close() error {
	return ix.writer.Close()
}

func (ix *Index) Index(m domain.Message) error {
	doc := bluge.NewDocument(m.ID).
		AddField(bluge.NewKeywordField("group", m.GroupName).StoreValue()).
		AddField(bluge.NewTextField("sender", m.SenderName).StoreValue()).
		AddField(bluge.NewTextField("text", searchable(m)).StoreValue()).
		AddField(bluge.NewStoredOnlyField("original", []byte(m.OriginalText)))
	return ix.writer.Update(doc.ID(), doc)
}

// Hit is one search result.
type Hit struct {
	MessageID string
	Sender    string
	Original  string
}

// Search finds messages of a group matching the query in any language.
func (ix *Index) Search(ctx context.Context, group, query string, limit int) ([]Hit, error) {
	reader, err := ix.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(group).SetField("group")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("searching %q in %s: %w", query, group, err)
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "sender":
				hit.Sender = string(value)
			case "original":
				hit.Original = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return hits, nil
}

func searchable(m domain.Message) string {
	parts := append([]string{m.OriginalText}, lo.Values(m.Translations)...)
	return strings.Join(parts, " ")
}
