package session_test

import (
	"fmt"

	"github.com/viant/faultline/trace"
	"github.com/viant/faultline/tracer"
)

type cart struct {
	Items []int
	Total int
}

func discount(tr *tracer.Tracer, price, percent int) int {
	defer tr.Enter(trace.V("price", price), trace.V("percent", percent))()
	cut := price * percent / 100
	tr.Step(trace.V("price", price), trace.V("percent", percent), trace.V("cut", cut))
	return price - cut
}

func (c *cart) add(tr *tracer.Tracer, price int) {
	defer tr.Enter(trace.V("c", c), trace.V("price", price))()
	c.Items = append(c.Items, price)
	c.Total += price
	tr.Step(trace.V("c", c), trace.V("price", price))
}

func checkout(tr *tracer.Tracer) error {
	defer tr.Enter()()
	total := discount(tr, 200, 10)
	tr.Step(trace.V("total", total))
	if total != 190 {
		return tracer.Fail(fmt.Errorf("expected 190, got %v", total))
	}
	return nil
}

func fill(tr *tracer.Tracer) error {
	defer tr.Enter()()
	basket := &cart{}
	for _, price := range []int{5, 7, 9} {
		basket.add(tr, price)
	}
	tr.Step(trace.V("basket", basket))
	return nil
}

func explode(tr *tracer.Tracer) error {
	defer tr.Enter()()
	var counts map[string]int
	counts["boom"]++
	return nil
}
