package msgchan

import (
	"testing"
	"time"
)

func TestChannel_FIFOOrder(t *testing.T) {
	ch := New()
	defer ch.Close()

	for i := int32(0); i < 100; i++ {
		ch.Put(i, nil)
	}
	for i := int32(0); i < 100; i++ {
		msg := ch.Get()
		if msg.Tag != i {
			t.Fatalf("got tag %d, want %d", msg.Tag, i)
		}
	}
}

func TestChannel_PutNeverBlocks(t *testing.T) {
	ch := New()
	defer ch.Close()

	done := make(chan struct{})
	go func() {
		// Nobody is consuming; all puts must still return.
		for i := int32(0); i < 1000; i++ {
			ch.Put(i, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Put blocked without a consumer")
	}
}

func TestChannel_GetBlocksUntilMessage(t *testing.T) {
	ch := New()
	defer ch.Close()

	got := make(chan Message, 1)
	go func() {
		got <- ch.Get()
	}()

	select {
	case <-got:
		t.Fatal("Get returned before any message was posted")
	case <-time.After(50 * time.Millisecond):
	}

	payload := "reply"
	ch.Put(7, payload)
	select {
	case msg := <-got:
		if msg.Tag != 7 || msg.Payload != payload {
			t.Errorf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not observe the message")
	}
}

func TestChannel_ManyProducers(t *testing.T) {
	ch := New()
	defer ch.Close()

	const producers = 8
	const perProducer = 50
	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProducer; i++ {
				ch.Put(int32(p), i)
			}
		}(p)
	}

	counts := make(map[int32]int)
	for i := 0; i < producers*perProducer; i++ {
		counts[ch.Get().Tag]++
	}
	for p := int32(0); p < producers; p++ {
		if counts[p] != perProducer {
			t.Errorf("producer %d delivered %d messages, want %d", p, counts[p], perProducer)
		}
	}
}
