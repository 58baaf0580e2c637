package middleware_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/weft/middleware"
	"github.com/jonwraymond/weft/weave"
)

type timing struct {
	start time.Time
}

func ExampleNew() {
	timer, err := middleware.New(middleware.Options[timing]{
		Name:       "timing",
		NewContext: func() *timing { return &timing{} },
		Before: func(_ context.Context, s *timing) error {
			s.start = time.Now()
			return nil
		},
		Complete: func(_ context.Context, s *timing) error {
			fmt.Println("elapsed under a minute:", time.Since(s.start) < time.Minute)
			return nil
		},
	})
	if err != nil {
		panic(err)
	}

	w, err := weave.NewWeaver(nil, timer)
	if err != nil {
		panic(err)
	}

	out, err := w.Weave(func(context.Context) (any, error) {
		return "done", nil
	}).Call(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println("value:", out.Value)
	// Output:
	// elapsed under a minute: true
	// value: done
}
