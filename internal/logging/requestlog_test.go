package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCapsBuffer(t *testing.T) {
	m := NewManager(2)
	m.Append(Entry{Method: "GET", Status: 200})
	m.Append(Entry{Method: "GET", Status: 201})
	m.Append(Entry{Method: "GET", Status: 404})

	logs := m.GetLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, 201, logs[0].Status)
	assert.Equal(t, 404, logs[1].Status)
}

func TestGetFilteredLogsByStatusClass(t *testing.T) {
	m := NewManager(10)
	m.Append(Entry{Method: "GET", Status: 200, URL: "/users"})
	m.Append(Entry{Method: "GET", Status: 404, URL: "/missing"})
	m.Append(Entry{Method: "POST", Status: 500, URL: "/users"})

	notFound := m.GetFilteredLogs(Filter{StatusClass: "4xx"})
	require.Len(t, notFound, 1)
	assert.Equal(t, 404, notFound[0].Status)

	byURL := m.GetFilteredLogs(Filter{URLContains: "users"})
	assert.Len(t, byURL, 2)
}
