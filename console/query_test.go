package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalSessionQueryDefaults(t *testing.T) {
	q := NewGlobalSessionQuery()
	assert.False(t, q.WithBranch)
	assert.Equal(t, Page{PageSize: 10, PageNum: 1}, q.Page)
	assert.Nil(t, q.Xid)
	assert.Nil(t, q.Status)
	assert.Nil(t, q.TimeStart)
}

func TestSetFilterThenReset(t *testing.T) {
	q := NewGlobalSessionQuery().WithPageSize(20).WithPage(3)
	q, err := q.SetFilter(FilterXid, "X")
	require.NoError(t, err)
	require.NotNil(t, q.Xid)
	assert.Equal(t, "X", *q.Xid)
	q, err = q.SetFilter(FilterWithBranch, "true")
	require.NoError(t, err)

	r := q.Reset()
	assert.Nil(t, r.Xid)
	assert.False(t, r.WithBranch)
	assert.Equal(t, Page{PageSize: 20, PageNum: 3}, r.Page)
	assert.Equal(t, "X", *q.Xid)
}

func TestSetFilterKeepsOtherFields(t *testing.T) {
	q := NewGlobalSessionQuery().WithXid("x1")
	q, err := q.SetFilter(FilterApplicationID, "app")
	require.NoError(t, err)
	q, err = q.SetFilter(FilterStatus, "CommitFailed")
	require.NoError(t, err)
	assert.Equal(t, "x1", *q.Xid)
	assert.Equal(t, "app", *q.ApplicationID)
	assert.Equal(t, GlobalCommitFailed, *q.Status)

	q, err = q.SetFilter(FilterStatus, "")
	require.NoError(t, err)
	assert.Nil(t, q.Status)
	q, err = q.SetFilter(FilterStatus, "42")
	require.NoError(t, err)
	assert.Equal(t, GlobalStatus(42), *q.Status)

	_, err = q.SetFilter(FilterStatus, "NoSuchStatus")
	assert.Error(t, err)
	_, err = q.SetFilter("color", "red")
	assert.Error(t, err)
	_, err = q.SetFilter(FilterWithBranch, "maybe")
	assert.Error(t, err)
	_, err = q.SetFilter(FilterTimeStart, "yesterday")
	assert.Error(t, err)
}

func TestTimeRange(t *testing.T) {
	start := time.Unix(1700000000, 0)
	q := NewGlobalSessionQuery().WithTimeRange(&start, nil)
	require.NotNil(t, q.TimeStart)
	assert.Equal(t, int64(1700000000000), *q.TimeStart)
	assert.Nil(t, q.TimeEnd)

	q = q.WithTimeRange(nil, &start)
	assert.Nil(t, q.TimeStart)
	assert.Equal(t, int64(1700000000000), *q.TimeEnd)

	q, err := q.SetFilter(FilterTimeStart, "1690000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1690000000000), *q.TimeStart)
	q, err = q.SetFilter(FilterTimeEnd, "2023-11-14 22:13:20")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), *q.TimeEnd)
	q, err = q.SetFilter(FilterTimeEnd, "")
	require.NoError(t, err)
	assert.Nil(t, q.TimeEnd)
}

func TestPageNormalize(t *testing.T) {
	q := NewGlobalSessionQuery().WithPage(0).WithPageSize(1000)
	assert.Equal(t, Page{PageSize: MaxPageSize, PageNum: 1}, q.Page)
	q = q.WithPageSize(-1)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestWithStatusCopies(t *testing.T) {
	s := GlobalBegin
	q := NewGlobalSessionQuery().WithStatus(&s)
	s = GlobalFinished
	assert.Equal(t, GlobalBegin, *q.Status)
}

func TestGlobalLockQuery(t *testing.T) {
	q := NewGlobalLockQuery().WithPageSize(30)
	var err error
	for k, v := range map[string]string{
		FilterXid: "x", FilterTableName: "t", FilterTransactionID: "1", FilterBranchID: "2",
		FilterPk: "p", FilterResourceID: "jdbc:mysql://db", FilterTimeStart: "1700000000000",
	} {
		q, err = q.SetFilter(k, v)
		require.NoError(t, err)
	}
	assert.Equal(t, "t", *q.TableName)
	assert.Equal(t, "jdbc:mysql://db", *q.ResourceID)
	assert.Equal(t, int64(1700000000000), *q.TimeStart)
	_, err = q.SetFilter(FilterStatus, "1")
	assert.Error(t, err)

	r := q.WithPage(2).Reset()
	assert.Nil(t, r.Xid)
	assert.Nil(t, r.TimeStart)
	assert.Equal(t, Page{PageSize: 30, PageNum: 2}, r.Page)
}
