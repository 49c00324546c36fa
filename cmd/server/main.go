package main

import (
	"flag"
	"log"
	"net/http"

	"hybridroot/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	router := server.NewRouter()
	log.Println("server listening on", *addr)
	log.Println("static files served from:", "static")
	log.Fatal(http.ListenAndServe(*addr, router))
}
