package server

import "sync"

// connectionRegistry indexes every live connection and the connections
// belonging to each user. It backs user-scoped delivery across rooms and the
// global stats fanout. Purely in-memory; rebuilt from nothing on restart.
type connectionRegistry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[int]map[*Client]struct{}
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{
		clients: make(map[*Client]struct{}),
		users:   make(map[int]map[*Client]struct{}),
	}
}

// add registers a connection. Idempotent.
func (cr *connectionRegistry) add(c *Client) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.clients[c] = struct{}{}
	if cr.users[c.user.Id] == nil {
		cr.users[c.user.Id] = make(map[*Client]struct{})
	}
	cr.users[c.user.Id][c] = struct{}{}
}

// remove drops a connection from both indexes. Idempotent.
func (cr *connectionRegistry) remove(c *Client) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	delete(cr.clients, c)
	if userClients, ok := cr.users[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cr.users, c.user.Id)
		}
	}
}

func (cr *connectionRegistry) clientsForUser(userId int) []*Client {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	clients := make([]*Client, 0, len(cr.users[userId]))
	for c := range cr.users[userId] {
		clients = append(clients, c)
	}

	return clients
}

func (cr *connectionRegistry) all() []*Client {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	clients := make([]*Client, 0, len(cr.clients))
	for c := range cr.clients {
		clients = append(clients, c)
	}

	return clients
}

func (cr *connectionRegistry) count() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	return len(cr.clients)
}
