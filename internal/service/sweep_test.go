package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-shop-auth/internal/metrics"
)

func TestSweepExpiredRefreshTokens(t *testing.T) {
	svc, d := newSvc(t)
	before := testutil.ToFloat64(metrics.Swept.WithLabelValues("refresh_tokens"))

	d.st.EXPECT().DeleteExpiredRefreshTokens(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, now time.Time) (int64, error) {
			require.WithinDuration(t, time.Now(), now, time.Second)
			return 3, nil
		})

	n, err := svc.SweepExpiredRefreshTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, before+3, testutil.ToFloat64(metrics.Swept.WithLabelValues("refresh_tokens")))

	d.st.EXPECT().DeleteExpiredRefreshTokens(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
	_, err = svc.SweepExpiredRefreshTokens(context.Background())
	require.Error(t, err)
}

func TestSweepExpiredBlacklist(t *testing.T) {
	svc, d := newSvc(t)
	before := testutil.ToFloat64(metrics.Swept.WithLabelValues("blacklist"))

	d.bl.EXPECT().DeleteExpiredBlacklist(gomock.Any(), gomock.Any()).Return(int64(2), nil)

	n, err := svc.SweepExpiredBlacklist(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.Swept.WithLabelValues("blacklist")))
}
