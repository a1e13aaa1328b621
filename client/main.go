package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/officeserver/models"
	"github.com/wfunc/officeserver/network"
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:2567", "server address")
	roomNumber := flag.String("room", "101", "room number to join")
	name := flag.String("name", "tester", "player name")
	password := flag.String("password", "", "room password")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// Join first; everything else is rejected until the session is admitted.
	opts := models.JoinOptions{
		RoomNumber:  *roomNumber,
		Name:        "Office " + *roomNumber,
		Password:    *password,
		AutoDispose: true,
		PlayerName:  *name,
		PlayerAnim:  "idle",
		WebRTCId:    *name + "-rtc",
	}
	joinData, _ := json.Marshal(opts)
	if err := send(c, network.MsgTypeJoinRoom, joinData); err != nil {
		log.Fatalf("Join write error: %v", err)
	}
	log.Printf("Joined room %s as %s", *roomNumber, *name)

	log.Println("Commands: 'say <text>', 'move <x> <y>', 'sit <id>', 'stand', 'quit'")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			send(c, network.MsgTypeLeaveRoom, nil)
			c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "say":
				data, _ := json.Marshal(models.ChatRequest{Content: strings.TrimPrefix(text, "say ")})
				send(c, network.MsgTypeAddChatMessage, data)
			case "move":
				if len(fields) != 3 {
					log.Println("usage: move <x> <y>")
					continue
				}
				var upd models.PlayerUpdate
				json.Unmarshal([]byte(`{"x":`+fields[1]+`,"y":`+fields[2]+`,"anim":"walk"}`), &upd)
				data, _ := json.Marshal(upd)
				send(c, network.MsgTypeUpdatePlayer, data)
			case "sit":
				if len(fields) != 2 {
					log.Println("usage: sit <id>")
					continue
				}
				var req models.SitRequest
				json.Unmarshal([]byte(`{"id":`+fields[1]+`}`), &req)
				req.Player = *name
				req.IsBroadcast = true
				req.IsSit = true
				data, _ := json.Marshal(req)
				send(c, network.MsgTypePlayerSit, data)
			case "stand":
				data, _ := json.Marshal(models.SitRequest{ID: -1, Player: *name})
				send(c, network.MsgTypePlayerSit, data)
			case "quit":
				send(c, network.MsgTypeLeaveRoom, nil)
				return
			default:
				log.Println("Unknown command:", fields[0])
			}
		}
	}
}
