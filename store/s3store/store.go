// Package s3store is an append-only graph.Graph over an S3 bucket. Every
// AddN call writes one N-Quads object; reads list and parse the objects
// under the configured prefix.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/geoknoesis/rdf-batch/graph"
	"github.com/geoknoesis/rdf-batch/internal/logctx"
	"github.com/geoknoesis/rdf-batch/rdf"
)

// DefaultGraph is the identifier used when Config.Graph is nil.
var DefaultGraph = rdf.IRI{Value: "urn:x-rdf-batch:default"}

const contentType = "application/n-quads"

var (
	_ graph.Graph       = (*Store)(nil)
	_ graph.Conjunctive = (*Store)(nil)
)

// API is the subset of the S3 client used by the store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for the S3 store.
type Config struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "dumps/2024/".
	Prefix string
	// Graph is the store identifier. Defaults to DefaultGraph.
	Graph rdf.Term
	// Conjunctive makes the store keep statements for any graph name.
	Conjunctive bool
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix %q must not start with '/'", c.Prefix)
	}
	return nil
}

// Store writes statement batches as S3 objects.
type Store struct {
	api         API
	bucket      string
	prefix      string
	identifier  rdf.Term
	conjunctive bool
	seq         atomic.Uint64
}

// New returns a store using api.
func New(api API, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Graph == nil {
		cfg.Graph = DefaultGraph
	}
	return &Store{
		api:         api,
		bucket:      cfg.Bucket,
		prefix:      cfg.Prefix,
		identifier:  cfg.Graph,
		conjunctive: cfg.Conjunctive,
	}, nil
}

// NewFromDefaultConfig builds the S3 client from the default AWS configuration.
func NewFromDefaultConfig(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return New(s3.NewFromConfig(awsCfg), cfg)
}

func (s *Store) Identifier() rdf.Term { return s.identifier }

func (s *Store) Conjunctive() bool { return s.conjunctive }

func (s *Store) Add(ctx context.Context, q rdf.Quad) error {
	return s.AddN(ctx, []rdf.Quad{q})
}

// AddN writes quads as one object. Nothing is written when no statement
// belongs to the store.
func (s *Store) AddN(ctx context.Context, quads []rdf.Quad) error {
	var buf bytes.Buffer
	writer, err := rdf.NewWriter(&buf, rdf.FormatNQuads)
	if err != nil {
		return err
	}
	n := 0
	for _, q := range quads {
		q, ok := s.normalize(q)
		if !ok {
			continue
		}
		if err := writer.Write(q); err != nil {
			return fmt.Errorf("encode statement: %w", err)
		}
		n++
	}
	if n == 0 {
		return nil
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	key := s.nextKey()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object s3://%s/%s: %w", s.bucket, key, err)
	}
	logger := logctx.FromContext(ctx)
	logger.Debug().Str("key", key).Int("statements", n).Msg("batch object written")
	return nil
}

// Triples returns the distinct triples matching p, in object key order.
func (s *Store) Triples(ctx context.Context, p graph.Pattern) ([]rdf.Triple, error) {
	var out []rdf.Triple
	seen := make(map[rdf.Triple]struct{})
	err := s.scan(ctx, func(q rdf.Quad) {
		if !p.Matches(q) {
			return
		}
		t := q.ToTriple()
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	})
	return out, err
}

// Len returns the number of distinct statements stored.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(rdf.Quad) { n++ })
	return n, err
}

// Keys lists the batch objects under the prefix in key order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".nq") {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// scan calls fn once per distinct stored statement.
func (s *Store) scan(ctx context.Context, fn func(rdf.Quad)) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	seen := make(map[rdf.Quad]struct{})
	for _, key := range keys {
		resp, err := s.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("get object s3://%s/%s: %w", s.bucket, key, err)
		}
		err = rdf.Parse(ctx, resp.Body, rdf.FormatNQuads, func(q rdf.Quad) error {
			if _, dup := seen[q]; dup {
				return nil
			}
			seen[q] = struct{}{}
			fn(q)
			return nil
		})
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("parse s3://%s/%s: %w", s.bucket, key, err)
		}
	}
	return nil
}

func (s *Store) normalize(q rdf.Quad) (rdf.Quad, bool) {
	if q.G == nil {
		q.G = s.identifier
		return q, true
	}
	return q, s.conjunctive || q.G == s.identifier
}

// nextKey names batch objects so that key order is write order.
func (s *Store) nextKey() string {
	return fmt.Sprintf("%sbatch-%019d-%08d-%s.nq", s.prefix, time.Now().UnixNano(), s.seq.Add(1), uuid.NewString())
}
