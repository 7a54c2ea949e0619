package main

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nimbit-software/gocontext/cancelctx"
)

func main() {
	root := cancelctx.New(nil)

	// REQUEST SCOPE: 150ms BUDGET FOR THE WHOLE WORKER GROUP
	reqCtx, err := root.WithTimeout(150)
	if err != nil {
		panic(err)
	}
	reqCtx, err = reqCtx.WithValues(map[string]interface{}{
		"request": map[string]interface{}{
			"id":     "req-42",
			"tenant": "acme",
		},
	})
	if err != nil {
		panic(err)
	}

	tenant, err := reqCtx.ValueAtPath("request.tenant")
	if err != nil {
		panic(err)
	}
	fmt.Printf("request %s for tenant %s (tree %s)\n", mustPath(reqCtx, "request.id"), tenant.String(), reqCtx.ID())

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		workerCtx, err := reqCtx.WithValues(map[string]interface{}{"worker": i})
		if err != nil {
			panic(err)
		}
		i := i
		g.Go(func() error {
			defer workerCtx.Release()
			select {
			case <-workerCtx.Done():
				fmt.Printf("worker %d: cancelled\n", i)
				return nil
			case <-time.After(time.Duration(100*(i+1)) * time.Millisecond):
				fmt.Printf("worker %d: finished\n", i)
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		panic(err)
	}
	fmt.Printf("request cancelled: %v\n", reqCtx.Cancelled())
}

func mustPath(c *cancelctx.Context, path string) string {
	res, err := c.ValueAtPath(path)
	if err != nil {
		panic(err)
	}
	return res.String()
}
