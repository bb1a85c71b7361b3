package core

import (
	"errors"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/caskdb/internal/protocol"
)

const helpString = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

SET <key> <value>
  Store a value for the given key.
  Overwrites the value if the key already exists.
  Response: ok

GET <key>
  Retrieve the value associated with the key.
  Response: value | nil

DELETE <key>
  Delete the key and its value.
  Response: ok

EXISTS <key>
  Check if a key exists.
  Response: true | false

COUNT
  Return the total number of keys stored.
  Response: integer

LIST
  List all stored keys.
  Response: list of keys | nil

HELP (cli only)
  Show this help message.

EXIT (cli only)
  Close the client connection.
`

func (bk *Bitcask) commandHandler(conn net.Conn) {
	defer conn.Close()

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				bk.logger.Debug("dropping client", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}

		bk.handleCommand(command, conn)
	}
}

func (bk *Bitcask) handleCommand(command *protocol.Command, conn net.Conn) {
	switch strings.ToLower(command.Cmd) {
	case protocol.CmdPing:
		bk.reply(conn, ReplyPong)
	case protocol.CmdSet:
		bk.handleCommandSET(conn, command.Key, command.Val)
	case protocol.CmdGet:
		bk.handleCommandGET(conn, command.Key)
	case protocol.CmdDelete:
		bk.handleCommandDelete(conn, command.Key)
	case protocol.CmdExists:
		bk.handleCommandExists(conn, command.Key)
	case protocol.CmdCount:
		bk.reply(conn, strconv.Itoa(bk.Count()))
	case protocol.CmdList:
		bk.handleCommandList(conn)
	case protocol.CmdHelp:
		bk.reply(conn, strings.TrimSpace(helpString))
	default:
		bk.reply(conn, ReplyInvalid)
	}
}

func (bk *Bitcask) handleCommandGET(conn net.Conn, key string) {
	value, err := bk.Get([]byte(key))
	if errors.Is(err, ErrKeyNotFound) {
		bk.reply(conn, ReplyNil)
		return
	}
	if err != nil {
		bk.logger.Error("error reading value", "key", key, "error", err)
		bk.reply(conn, "Error while reading value")
		return
	}

	bk.reply(conn, string(value))
}

func (bk *Bitcask) handleCommandSET(conn net.Conn, key, value string) {
	if err := bk.Set([]byte(key), []byte(value)); err != nil {
		if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrEmptyValue) {
			bk.reply(conn, ReplyInvalid)
			return
		}
		bk.logger.Error("error setting value", "key", key, "error", err)
		bk.reply(conn, "Error while setting value")
		return
	}

	bk.reply(conn, ReplyOK)
}

func (bk *Bitcask) handleCommandDelete(conn net.Conn, key string) {
	if err := bk.Delete([]byte(key)); err != nil {
		if errors.Is(err, ErrEmptyKey) {
			bk.reply(conn, ReplyInvalid)
			return
		}
		bk.logger.Error("error deleting value", "key", key, "error", err)
		bk.reply(conn, "Error while deleting value")
		return
	}

	bk.reply(conn, ReplyOK)
}

func (bk *Bitcask) handleCommandExists(conn net.Conn, key string) {
	if bk.Exists([]byte(key)) {
		bk.reply(conn, ReplyTrue)
		return
	}

	bk.reply(conn, ReplyFalse)
}

func (bk *Bitcask) handleCommandList(conn net.Conn) {
	keys := bk.List()
	if len(keys) == 0 {
		bk.reply(conn, ReplyNil)
		return
	}

	bk.reply(conn, "----- KEYS START -----\n"+strings.Join(keys, "\n")+"\n----- KEYS END -----")
}

func (bk *Bitcask) reply(conn net.Conn, msg string) {
	encodedResponse, err := protocol.EncodeResponse(msg)
	if err != nil {
		bk.logger.Error("error encoding response", "error", err)
		return
	}

	if _, err := conn.Write(encodedResponse); err != nil {
		bk.logger.Debug("client disconnected", "remote", conn.RemoteAddr().String())
	}
}
