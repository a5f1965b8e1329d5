package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

const urgentColor = "#cc0000"

// Utilization above this marks the cpu and memory blocks urgent.
const urgentUsagePercent = 90

// A CPU displays the total CPU utilization since the previous refresh.
type CPU struct{}

func NewCPU() *CPU {
	return &CPU{}
}

func (*CPU) Name() string {
	return "cpu"
}

func (*CPU) Block(ctx context.Context) (protocol.Block, error) {
	// Interval 0 measures against the previous call, so the first
	// reading after startup reports 0.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return protocol.Block{}, fmt.Errorf("reading cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return protocol.Block{}, errors.New("no cpu usage reported")
	}
	return usageBlock("cpu", "cpu", percents[0]), nil
}

// A Memory displays the used physical memory percentage.
type Memory struct{}

func NewMemory() *Memory {
	return &Memory{}
}

func (*Memory) Name() string {
	return "memory"
}

func (*Memory) Block(ctx context.Context) (protocol.Block, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return protocol.Block{}, fmt.Errorf("reading memory usage: %w", err)
	}
	return usageBlock("memory", "mem", vm.UsedPercent), nil
}

// usageBlock renders a percentage meter, marked urgent when usage is
// critical.  The display label may be shorter than the name carried in
// click events.
func usageBlock(name, label string, percent float64) protocol.Block {
	b := protocol.NewBlock(fmt.Sprintf("%s %.0f%%", label, percent)).SetName(name)
	if percent >= urgentUsagePercent {
		b.SetUrgent(true).SetColor(urgentColor)
	}
	return *b
}

// A Load displays the one minute load average.
type Load struct{}

func NewLoad() *Load {
	return &Load{}
}

func (*Load) Name() string {
	return "load"
}

func (*Load) Block(ctx context.Context) (protocol.Block, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return protocol.Block{}, fmt.Errorf("reading load average: %w", err)
	}
	return *protocol.NewBlock(fmt.Sprintf("load %.2f", avg.Load1)).SetName("load"), nil
}
