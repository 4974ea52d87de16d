package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"golang.org/x/crypto/bcrypt"

	"tinylinks/internal/ipchecker"
	"tinylinks/internal/logger"
	"tinylinks/internal/memstore"
	"tinylinks/internal/service"
	"tinylinks/internal/session"
	"tinylinks/internal/shortcode"
)

func newExampleServer() *httptest.Server {
	if err := logger.Init("error"); err != nil {
		panic(err)
	}

	db := memstore.New(shortcode.New(shortcode.DefaultLength).Next)
	sessions := session.New(db, "example_session", []byte("example signing key"))
	svc := service.New(db, "http://localhost:8080", bcrypt.MinCost)

	ipChecker, err := ipchecker.New("")
	if err != nil {
		panic(err)
	}

	handler, err := New(svc, sessions, ipChecker)
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(handler)
}

func ExampleRouter_GetPing() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_RedirectToLongURL() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/u/unknown")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 404
}
