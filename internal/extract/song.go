package extract

import (
	"context"
	"fmt"

	"github.com/sparkify-data/sparkify-etl/internal/records"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// SongExtractor loads one song-metadata file into the songs and artists tables.
type SongExtractor struct{}

// NewSongExtractor creates a SongExtractor.
func NewSongExtractor() *SongExtractor {
	return &SongExtractor{}
}

func (e *SongExtractor) Name() string { return sparkify.PhaseSongs }

// Extract parses the file and inserts its song, then its artist.
func (e *SongExtractor) Extract(ctx context.Context, sink sparkify.Sink, file sparkify.DataFile, content []byte) (sparkify.FileResult, error) {
	song, artist, err := records.ParseSongFile(file.RelativePath, content)
	if err != nil {
		return sparkify.FileResult{}, err
	}

	if err := sink.InsertSong(ctx, song); err != nil {
		return sparkify.FileResult{}, fmt.Errorf("failed to insert song %s: %w", song.SongID, err)
	}
	if err := sink.InsertArtist(ctx, artist); err != nil {
		return sparkify.FileResult{}, fmt.Errorf("failed to insert artist %s: %w", artist.ArtistID, err)
	}

	return sparkify.FileResult{Songs: 1, Artists: 1}, nil
}

var _ sparkify.Extractor = (*SongExtractor)(nil)
