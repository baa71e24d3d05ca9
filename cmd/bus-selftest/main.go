//go:build !rp2040 && !rp2350

// cmd/bus-selftest/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"wlanbus-go/hostbus"
	"wlanbus-go/platform"
	"wlanbus-go/worker"
)

const irqF2PacketAvailable = 0x0020

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := run(logger); err != nil {
		logger.Error("selftest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("selftest passed")
}

func run(logger *slog.Logger) error {
	g, chip := platform.NewHostGSPI(platform.GSPIConfig{PowerOnDelay: time.Millisecond})
	ctrl := hostbus.New(
		hostbus.NewLoggedPlatform(g, logger, slog.LevelDebug),
		hostbus.Config{Name: "wlan0", Logger: logger},
	)

	if err := ctrl.Init(); err != nil {
		return err
	}
	if err := ctrl.EnableInterrupts(); err != nil {
		return err
	}

	w := worker.New(ctrl, drainPackets(g, logger), worker.Config{Logger: logger})
	w.Start(context.Background())

	// Three interrupts before the worker gets to run: one wake.
	for i := 0; i < 3; i++ {
		chip.Raise(irqF2PacketAvailable)
	}

	deadline := time.Now().Add(time.Second)
	for w.Polls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := ctrl.DisableInterrupts(); err != nil {
		return err
	}
	if err := ctrl.Deinit(); err != nil {
		return err
	}
	if err := w.Wait(); err != nil {
		return err
	}

	st := ctrl.Stats()
	logger.Info("bus stats",
		"notified", st.Notified,
		"coalesced", st.Coalesced,
		"ignored", st.Ignored,
		"wakes", st.Wakes,
		"rx_released", st.RxReleased,
		"tx_released", st.TxReleased,
		"polls", w.Polls(),
		"irq_fires", g.Line().Fires(),
	)
	return nil
}

// drainPackets reads the chip status and recycles one receive buffer per
// pending packet notification.
func drainPackets(g *platform.GSPI, logger *slog.Logger) worker.PollerFunc {
	return func(ctx context.Context, rel worker.Releaser) error {
		st, err := g.InterruptStatus()
		if err != nil {
			return err
		}
		logger.Debug("chip status", "bits", st)
		if st&irqF2PacketAvailable == 0 {
			return nil
		}
		rx := g.Ring(hostbus.Receive)
		if !rx.Take() {
			logger.Warn("rx ring overrun")
			return nil
		}
		return rel.BufferFreed(hostbus.Receive)
	}
}
