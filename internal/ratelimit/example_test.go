package ratelimit_test

import (
	"fmt"

	"stepchain/internal/ratelimit"
)

func ExampleNewPacer() {
	// Allow 20 simulated input events per second.
	pacer := ratelimit.NewPacer(20)

	first := pacer.Delay()
	second := pacer.Delay()

	fmt.Printf("first immediate: %v, second paced: %v\n", first == 0, second > 0)
	// Output: first immediate: true, second paced: true
}

func ExamplePacer_SetRate() {
	pacer := ratelimit.NewPacer(5)

	// Disable pacing for a fast local run.
	pacer.SetRate(0)

	fmt.Println("rate:", pacer.Rate())
	// Output: rate: 0
}
