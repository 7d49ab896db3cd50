package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSearchNormalizes(t *testing.T) {
	b := &fakeBackend{locks: []RawGlobalLock{
		{Xid: "a", TransactionID: "11", BranchID: "12", TableName: "stock", Pk: "1",
			GmtCreate: RawMillis{Millis: 1700000000000, Valid: true}},
	}}
	c := NewLockConsole(b, WithLocation(time.UTC), WithInitialPageSize(10))
	require.NoError(t, c.Search(context.Background()))

	s := c.Snapshot()
	require.Len(t, s.Rows, 1)
	l := s.Rows[0]
	require.NotNil(t, l.GmtCreate)
	assert.Equal(t, "2023-11-14 22:13:20", *l.GmtCreate)
	assert.Nil(t, l.GmtModified)
	assert.Equal(t, "12", l.BranchID)
	assert.Equal(t, int64(1), s.Total)
	assert.False(t, s.Loading)
}

func TestLockFiltersAndPages(t *testing.T) {
	b := &fakeBackend{}
	c := NewLockConsole(b, WithLocation(time.UTC), WithInitialPageSize(10))
	ctx := context.Background()

	require.NoError(t, c.SetFilter(FilterTableName, " stock "))
	require.NoError(t, c.SetFilter(FilterPk, "7"))
	assert.Error(t, c.SetFilter(FilterStatus, "1"))
	require.NoError(t, c.SetPage(ctx, 3))

	require.Len(t, b.lockQuery, 1)
	q := b.lockQuery[0]
	require.NotNil(t, q.TableName)
	assert.Equal(t, "stock", *q.TableName)
	assert.Equal(t, 3, q.PageNum)

	// the empty result sends the view back to page 1
	s := c.Snapshot()
	assert.Equal(t, 1, s.Query.PageNum)
	assert.Empty(t, s.Rows)

	c.ResetFilters()
	s = c.Snapshot()
	assert.Nil(t, s.Query.TableName)
	assert.Nil(t, s.Query.Pk)

	require.NoError(t, c.SetPageSize(ctx, 50))
	assert.Equal(t, 50, b.lockQuery[1].PageSize)
}

func TestLockCheck(t *testing.T) {
	b := &fakeBackend{held: true}
	c := NewLockConsole(b)
	held, err := c.Check(context.Background(), "a", "12")
	require.NoError(t, err)
	assert.True(t, held)
}
