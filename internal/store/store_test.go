package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/buntdb"
)

func TestOpenCreatesIndexes(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	err = s.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(TransferPrefix+"1", `{"action":"archive","status":"submitted","record_uuid":"r1"}`, nil)
		return err
	})
	require.NoError(t, err)

	var found string
	err = s.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(IdxTransferRecordUUID, func(key, value string) bool {
			found = key
			return false
		})
	})
	require.NoError(t, err)
	require.Equal(t, TransferPrefix+"1", found)
}

func TestCreateIndexesIsIdempotent(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.createIndexes())
	require.NoError(t, s.Close())
}
