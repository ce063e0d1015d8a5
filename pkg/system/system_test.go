package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/require"
)

func newTestSystem() *System {
	return &System{
		cpu: func(context.Context, time.Duration, bool) ([]float64, error) {
			return []float64{11.5}, nil
		},
		ram: func() (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{UsedPercent: 22}, nil
		},
		disk: func(path string) (*disk.UsageStat, error) {
			return &disk.UsageStat{Path: path, UsedPercent: 33.9}, nil
		},
		diskPath: "/",
	}
}

func TestStatus(t *testing.T) {
	status, err := newTestSystem().Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, Status{CPUUsage: 11, RAMUsage: 22, DiskUsage: 33}, status)
	require.Equal(t, "cpu 11%, ram 22%, disk 33%", status.String())
}

func TestStatusErr(t *testing.T) {
	errMock := errors.New("mock")

	t.Run("cpu", func(t *testing.T) {
		s := newTestSystem()
		s.cpu = func(context.Context, time.Duration, bool) ([]float64, error) {
			return nil, errMock
		}
		_, err := s.Status(context.Background())
		require.ErrorIs(t, err, errMock)
	})
	t.Run("noCPU", func(t *testing.T) {
		s := newTestSystem()
		s.cpu = func(context.Context, time.Duration, bool) ([]float64, error) {
			return nil, nil
		}
		_, err := s.Status(context.Background())
		require.ErrorIs(t, err, ErrNoCPU)
	})
	t.Run("ram", func(t *testing.T) {
		s := newTestSystem()
		s.ram = func() (*mem.VirtualMemoryStat, error) { return nil, errMock }
		_, err := s.Status(context.Background())
		require.ErrorIs(t, err, errMock)
	})
	t.Run("disk", func(t *testing.T) {
		s := newTestSystem()
		s.disk = func(string) (*disk.UsageStat, error) { return nil, errMock }
		_, err := s.Status(context.Background())
		require.ErrorIs(t, err, errMock)
	})
}
