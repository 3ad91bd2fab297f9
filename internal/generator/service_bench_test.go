package generator

import (
	"context"
	"testing"
	"time"
)

func BenchmarkBuildSequential(b *testing.B) {
	benchmarkBuild(b, 1)
}

func BenchmarkBuildConcurrent(b *testing.B) {
	benchmarkBuild(b, 4)
}

func benchmarkBuild(b *testing.B, workers int) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		fixtures := newBuildFixtures(now)
		fixtures.Config.Workers = workers

		svc := NewService(fixtures.Config, fixtures.Dependencies()).(*service)
		svc.now = func() time.Time { return now }

		if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
			b.Fatalf("build: %v", err)
		}
	}
}
