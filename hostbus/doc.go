// Package hostbus mediates between a wireless-chip driver core and the
// platform bus hardware (SDIO/SPI style) that carries its traffic.
//
// A Controller owns one bus instance. The driver core uses it to bring the
// bus up and down, to arm and disarm the bus interrupt, and to hand consumed
// buffers back to the platform so DMA rings can be refilled. The platform
// interrupt handler calls Notify; a single worker goroutine parks in
// WaitAndDrain and fully re-polls the hardware each time it returns.
//
//	ctrl := hostbus.New(plat, hostbus.Config{Name: "wlan0"})
//	if err := ctrl.Init(); err != nil { ... }
//	if err := ctrl.EnableInterrupts(); err != nil { ... }
//	for {
//	    if err := ctrl.WaitAndDrain(ctx); err != nil {
//	        break // errcode.ShutdownInProgress once Deinit starts
//	    }
//	    // poll hardware, then ctrl.BufferFreed(hostbus.Receive) per consumed buffer
//	}
//
// Lifecycle operations are serialised by the controller. Notify is exempt:
// it never blocks and is safe to call from interrupt context.
package hostbus
