// fake_responses writes a synthetic capture of Ad Library GraphQL responses
// for local runs of adsync. The output includes repeated ads, error pages and
// results that must be rejected, so a parse exercises every skip path.
//
// Usage:
//
//	go run ./tools/fake_responses -ads=200 -out=responses.json
//	adsync run responses.json --memory
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/config"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
)

var (
	adCount   = flag.Int("ads", 100, "number of unique ads")
	perPage   = flag.Int("per-page", 10, "collated results per response")
	dupRate   = flag.Float64("duplicates", 0.2, "chance a result repeats an earlier ad")
	malformed = flag.Bool("malformed", true, "include error pages and unusable results")
	seed      = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	out       = flag.String("out", "responses.json", "output file or s3://bucket/key")
)

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cfg := config.Load()

	var s3c artifact.S3API
	if artifact.IsS3(*out) {
		client, err := artifact.NewS3Client(ctx, artifact.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Fatal("init s3", zap.Error(err))
		}
		s3c = client
	}

	r := rand.New(rand.NewSource(*seed))
	responses := Generate(r, Options{
		Ads:           *adCount,
		PerPage:       *perPage,
		DuplicateRate: *dupRate,
		Malformed:     *malformed,
	})

	data, err := artifact.MarshalResponses(responses)
	if err != nil {
		logger.Fatal("encode responses", zap.Error(err))
	}
	if err := artifact.NewStore(s3c).Write(ctx, *out, data); err != nil {
		logger.Fatal("write responses", zap.Error(err))
	}

	logger.Info("fake responses written",
		zap.String("out", *out),
		zap.Int("responses", len(responses)),
		zap.Int("unique_ads", *adCount),
		zap.Int64("seed", *seed),
	)
}
