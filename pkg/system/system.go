// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrNoCPU no cpu usage was reported.
var ErrNoCPU = errors.New("no cpu")

// Status stores system status.
type Status struct {
	CPUUsage  int
	RAMUsage  int
	DiskUsage int
}

func (s Status) String() string {
	return fmt.Sprintf("cpu %d%%, ram %d%%, disk %d%%", s.CPUUsage, s.RAMUsage, s.DiskUsage)
}

type (
	cpuFunc  func(context.Context, time.Duration, bool) ([]float64, error)
	ramFunc  func() (*mem.VirtualMemoryStat, error)
	diskFunc func(string) (*disk.UsageStat, error)
)

// System samples resource usage of the host.
type System struct {
	cpu  cpuFunc
	ram  ramFunc
	disk diskFunc

	diskPath string
	duration time.Duration
}

// New returns a System that reports disk usage of the volume at diskPath.
func New(diskPath string) *System {
	return &System{
		cpu:  cpu.PercentWithContext,
		ram:  mem.VirtualMemory,
		disk: disk.Usage,

		diskPath: diskPath,
		duration: 100 * time.Millisecond,
	}
}

// Status returns cpu, ram and disk usage.
func (s *System) Status(ctx context.Context) (Status, error) {
	cpuUsage, err := s.cpu(ctx, s.duration, false)
	if err != nil {
		return Status{}, fmt.Errorf("could not get cpu usage: %w", err)
	}
	if len(cpuUsage) == 0 {
		return Status{}, fmt.Errorf("could not get cpu usage: %w", ErrNoCPU)
	}
	ramUsage, err := s.ram()
	if err != nil {
		return Status{}, fmt.Errorf("could not get ram usage: %w", err)
	}
	diskUsage, err := s.disk(s.diskPath)
	if err != nil {
		return Status{}, fmt.Errorf("could not get disk usage: %w", err)
	}

	return Status{
		CPUUsage:  int(cpuUsage[0]),
		RAMUsage:  int(ramUsage.UsedPercent),
		DiskUsage: int(diskUsage.UsedPercent),
	}, nil
}
