/*Package artnet implements the parts of Art-Net that a single-universe LED node needs.
The standard can be obtained here: https://art-net.org.uk

Only ArtDmx (opcode 0x5000) and three vendor opcodes for node settings are understood, everything
else is ignored. Note that in an ArtDmx packet the universe is little endian, but the length of
the DMX data is big endian.

Receiving

Use `artnet.NewReceiverSocket` to open the UDP socket on port 6454. Register a callback for DMX
packets and handlers for the settings opcodes, then call `Start`. The callbacks are called from
the listener goroutine and the packet is only valid during the call, because it shares the
receive buffer.

The receiver does not queue: after each packet everything that arrived in the meantime is read
and thrown away. Sequence numbers are not checked here, that is up to the consumer.

Transmitting

A `Transmitter` sends DMX data of activated universes to unicast or broadcast destinations.
The data is repeated every second. Settings packets can be sent with `SendConfig`.

Example

	package main

	import (
		"log"
		"time"

		"github.com/Hundemeier/go-artnet-led/artnet"
	)

	func main() {
		trans, err := artnet.NewTransmitter("")
		if err != nil {
			log.Fatal(err)
		}
		defer trans.Close()

		ch, err := trans.Activate(0)
		if err != nil {
			log.Fatal(err)
		}
		defer close(ch)
		trans.SetDestinations(0, []string{"255.255.255.255"})

		//program 0: every LED red
		for i := 0; i < 20; i++ {
			ch <- []byte{0, 255, 0, 0, 255, 0, 0}
			time.Sleep(500 * time.Millisecond)
		}
	}*/
package artnet
