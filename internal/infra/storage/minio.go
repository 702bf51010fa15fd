package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Put uploads data under key and returns the object URL.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	// URL publik (jika bucket public), kalau private harus generate presigned URL
	return objectURL(s.client.EndpointURL(), s.bucketName, key), nil
}

// Check verifies the bucket is reachable. Used by the health endpoint.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func objectURL(endpoint *url.URL, bucket, key string) string {
	u := url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: "/" + bucket + "/" + key}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	return u.String()
}

// DeckStore keeps one JSON object per user under decks/.
type DeckStore struct{ S *Store }

func NewDeckStore(s *Store) *DeckStore { return &DeckStore{S: s} }

func deckKey(email string) string {
	return "decks/" + url.PathEscape(strings.ToLower(strings.TrimSpace(email))) + ".json"
}

func (d *DeckStore) Get(ctx context.Context, email string) (*pitchdeck.Deck, error) {
	obj, err := d.S.client.GetObject(ctx, d.S.bucketName, deckKey(email), minio.GetObjectOptions{})
	if err != nil {
		return nil, mapNoSuchKey(err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapNoSuchKey(err)
	}
	var deck pitchdeck.Deck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	return &deck, nil
}

func (d *DeckStore) Save(ctx context.Context, deck *pitchdeck.Deck) error {
	raw, err := json.Marshal(deck)
	if err != nil {
		return err
	}
	_, err = d.S.Put(ctx, deckKey(deck.UserEmail), "application/json", raw)
	return err
}

func mapNoSuchKey(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return pitchdeck.ErrNotFound
	}
	return err
}
