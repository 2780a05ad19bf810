package pathway_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bjaus/pathway"
	"github.com/bjaus/pathway/history"
)

func Example() {
	r := pathway.New(pathway.WithLocation(history.New(history.PushState, history.WithRoot("/app"))))

	r.MustRegister("/users/:id", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("user", req.Param("id"))
	})

	if err := r.Navigate(context.Background(), "/users/42"); err != nil {
		fmt.Println("error:", err)
	}

	fmt.Println(r.Location().(*history.History).URL())
	// Output:
	// user 42
	// /app/users/42
}

func Example_middleware() {
	r := pathway.New()
	loggedIn := false

	requireUser := func(req *pathway.Request, c *pathway.Chain, next func()) {
		if !loggedIn {
			fmt.Println("redirect from", req.Path)
			_ = c.Router().Navigate(req.Context(), "/login")
			return
		}
		next()
	}

	r.MustRegister("/login", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("login page")
	})
	r.MustRegister("/settings", []pathway.Handler{requireUser}, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("settings page")
	})

	_ = r.Navigate(context.Background(), "/settings")
	loggedIn = true
	_ = r.Navigate(context.Background(), "/settings")
	// Output:
	// redirect from /settings
	// login page
	// settings page
}

func Example_stopPropagation() {
	r := pathway.New()

	r.MustRegister("/admin/*", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("access denied")
		c.StopPropagation()
	})
	r.MustRegister("/admin/reports", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("reports")
	})
	r.MustRegister("/:page", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("page", req.Param("page"))
	})

	_ = r.Navigate(context.Background(), "/admin/reports")
	_ = r.Navigate(context.Background(), "/about")
	// Output:
	// access denied
	// page about
}

func Example_preventDefault() {
	r := pathway.New()
	dirty := true

	r.On(pathway.EventMatch, func(ev *pathway.Event) error {
		if dirty {
			fmt.Println("unsaved changes, staying on", ev.Match.Path)
			ev.Chain.PreventDefault()
		}
		return nil
	})
	r.MustRegister("/next", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("next page")
	})

	_ = r.Navigate(context.Background(), "/next")
	dirty = false
	_ = r.Navigate(context.Background(), "/next")
	// Output:
	// unsaved changes, staying on /next
	// next page
}

func Example_group() {
	r := pathway.New()
	admin := r.Group("/admin", func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("auth check")
		next()
	})

	_, _ = admin.Get("/", func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("dashboard")
	})
	_, _ = admin.Get("users/:id", func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("edit user", req.Param("id"))
	})

	_ = r.Navigate(context.Background(), "/admin/users/7")
	// Output:
	// auth check
	// edit user 7
}

func Example_hooks() {
	r := pathway.New(
		pathway.WithOnComplete(func(ctx context.Context, c *pathway.Chain, completed bool, d time.Duration) {
			fmt.Println("completed:", completed)
		}),
		pathway.WithOnNoMatch(func(ctx context.Context, path string) error {
			return fmt.Errorf("%w: %s", pathway.ErrNoMatch, path)
		}),
	)
	r.MustRegister("/", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		fmt.Println("home")
	})

	_ = r.Navigate(context.Background(), "/")
	err := r.Navigate(context.Background(), "/missing")
	fmt.Println(err)
	// Output:
	// home
	// completed: true
	// no route matched path: /missing
}

func ExampleCompile() {
	p := pathway.MustCompile("/files/:name.:ext?")
	fmt.Println(p)

	for _, path := range []string{"/files/report.pdf", "/files/notes", "/files/a/b"} {
		res, err := p.Match(path)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if !res.Matched {
			fmt.Println(path, "no match")
			continue
		}
		ext, _ := res.Params.Param("ext")
		fmt.Printf("%s name=%s ext=%q present=%v\n", path, res.Params.Get("name"), ext.Value, ext.Present)
	}
	// Output:
	// ^\/files\/(?:([^/]+?))(?:\.([^/.]+?))?\/?$
	// /files/report.pdf name=report ext="pdf" present=true
	// /files/notes name=notes ext="" present=false
	// /files/a/b no match
}

func ExampleParams_At() {
	res, _ := pathway.MustCompile("/search/*").Match("/search/go/generics")
	rest, _ := res.Params.At(0)
	fmt.Println(rest)
	// Output:
	// go/generics
}
