package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindURLArchiveRewritesHotToCold(t *testing.T) {
	r := NewRouter([]Location{
		{HotPrefix: "hot://X", ColdPrefix: "cold://Y", Backend: "cp"},
	})
	peer, backendName := r.FindURL("archive", "hot://X/f")
	assert.Equal(t, "cold://Y/f", peer)
	assert.Equal(t, "cp", backendName)
}

func TestFindURLStageRewritesColdToHot(t *testing.T) {
	r := NewRouter([]Location{
		{HotPrefix: "hot://X", ColdPrefix: "cold://Y", Backend: "cp"},
	})
	peer, backendName := r.FindURL("stage", "cold://Y/f")
	assert.Equal(t, "hot://X/f", peer)
	assert.Equal(t, "cp", backendName)
}

func TestFindURLPicksLongestPrefixMatch(t *testing.T) {
	r := NewRouter([]Location{
		{HotPrefix: "hot://X", ColdPrefix: "cold://Y", Backend: "generic"},
		{HotPrefix: "hot://X/atlas", ColdPrefix: "cold://Y/atlas", Backend: "widearea"},
	})
	peer, backendName := r.FindURL("archive", "hot://X/atlas/run1.root")
	assert.Equal(t, "cold://Y/atlas/run1.root", peer)
	assert.Equal(t, "widearea", backendName)
}

func TestFindURLReturnsEmptyWhenNoMatch(t *testing.T) {
	r := NewRouter([]Location{{HotPrefix: "hot://X", ColdPrefix: "cold://Y", Backend: "cp"}})
	peer, backendName := r.FindURL("archive", "hot://Z/f")
	assert.Equal(t, "", peer)
	assert.Equal(t, "", backendName)
}
