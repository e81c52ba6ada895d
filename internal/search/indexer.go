// Package search mirrors notifications into Elasticsearch for the list
// views' full-text search. Indexing is asynchronous and best-effort, under
// the same isolation policy as push fan-out: a failed index write is logged
// and dropped, never surfaced to the caller of the originating mutation.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"notifyhub/internal/common/logger"
	"notifyhub/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search-indexer"}),
	}
}

type document struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	CreateBy   int64     `json:"createBy"`
	UpdateDate time.Time `json:"updateDate"`
}

// Index upserts a notification document. Fire-and-forget.
func (i *Indexer) Index(n models.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := i.indexDoc(ctx, n); err != nil {
			i.logger.Warn("search index failed", map[string]interface{}{
				"notifyId": n.ID,
				"error":    err,
			})
		}
	}()
}

// Remove deletes notification documents. Fire-and-forget.
func (i *Indexer) Remove(ids []int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, id := range ids {
			if err := i.remove(ctx, id); err != nil {
				i.logger.Warn("search delete failed", map[string]interface{}{
					"notifyId": id,
					"error":    err,
				})
			}
		}
	}()
}

func (i *Indexer) indexDoc(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(document{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Type:       n.Type,
		Status:     n.Status,
		CreateBy:   n.CreateBy,
		UpdateDate: n.UpdateDate,
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(strconv.FormatInt(n.ID, 10)),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index response: %s", res.Status())
	}
	return nil
}

func (i *Indexer) remove(ctx context.Context, id int64) error {
	res, err := i.client.Delete(
		i.index,
		strconv.FormatInt(id, 10),
		i.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// 404 is fine: drafts are never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete response: %s", res.Status())
	}
	return nil
}
