package api

import (
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"syncoracle/internal/journal"
)

var activeConnections = 0
var mu sync.Mutex

// StartServer serves the inspection API on addr until the listener fails.
func StartServer(addr string, jnl *journal.Journal) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	defer listener.Close()

	log.Printf("inspection API listening on %s", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		mu.Lock()
		activeConnections++
		mu.Unlock()

		go func(conn net.Conn) {
			defer func() {
				conn.Close()
				mu.Lock()
				activeConnections--
				if activeConnections == 0 {
					log.Println("All inspection clients have disconnected.")
				}
				mu.Unlock()
			}()

			server := rpc.NewServer()
			if err := server.RegisterName("Findings", &Findings{jnl: jnl}); err != nil {
				log.Println("Error registering Findings service:", err)
				return
			}
			if err := server.RegisterName("Events", &Events{jnl: jnl}); err != nil {
				log.Println("Error registering Events service:", err)
				return
			}

			server.ServeCodec(jsonrpc.NewServerCodec(conn))
		}(conn)
	}
}
