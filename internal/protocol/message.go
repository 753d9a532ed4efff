package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

// Version is stamped on every outbound message. Messages without a version are treated as version 1.
const Version = 1

const (
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeMove         = "move"
	TypeRestart      = "restart"
	TypeRoomCreated  = "room_created"
	TypePlayerJoined = "player_joined"
	TypeError        = "error"
)

// Error texts as shown to players.
const (
	TextInvalidMessage     = "无效的消息格式"
	TextUnknownMessageType = "未知的消息类型"
	TextUnsupportedVersion = "不支持的协议版本"
	TextRoomNotFound       = "房间不存在"
	TextRoomFull           = "房间已满"
	TextSelfJoin           = "不能加入自己创建的房间"
	TextRoomCreateFailed   = "房间创建失败"
	TextOpponentLeft       = "对手已断开连接"
)

// Message is the single wire object; Type selects which other fields are meaningful.
type Message struct {
	Type          string `json:"type"`
	Version       int    `json:"version,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	CellIndex     *int   `json:"cellIndex,omitempty"`
	CurrentPlayer string `json:"currentPlayer,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Decode parses one text frame.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMessage, err)
	}

	if msg.Version > Version {
		return msg, fmt.Errorf("%w: %d", apperror.ErrUnsupportedVersion, msg.Version)
	}

	return msg, nil
}

func NewRoomCreated(roomID string) Message {
	return Message{Type: TypeRoomCreated, Version: Version, RoomID: roomID}
}

func NewPlayerJoined(roomID string) Message {
	return Message{Type: TypePlayerJoined, Version: Version, RoomID: roomID}
}

func NewMove(roomID string, cell int, currentPlayer string) Message {
	return Message{Type: TypeMove, Version: Version, RoomID: roomID, CellIndex: &cell, CurrentPlayer: currentPlayer}
}

func NewRestart(roomID string) Message {
	return Message{Type: TypeRestart, Version: Version, RoomID: roomID}
}

func NewError(text string) Message {
	return Message{Type: TypeError, Version: Version, Message: text}
}

// TextFor maps a protocol or room error to the text sent to the client.
func TextFor(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidMessage):
		return TextInvalidMessage
	case errors.Is(err, apperror.ErrUnknownMessageType):
		return TextUnknownMessageType
	case errors.Is(err, apperror.ErrUnsupportedVersion):
		return TextUnsupportedVersion
	case errors.Is(err, apperror.ErrRoomNotFound):
		return TextRoomNotFound
	case errors.Is(err, apperror.ErrRoomFull):
		return TextRoomFull
	case errors.Is(err, apperror.ErrSelfJoin):
		return TextSelfJoin
	case errors.Is(err, apperror.ErrRoomCodeUnavailable):
		return TextRoomCreateFailed
	case errors.Is(err, apperror.ErrOpponentLeft):
		return TextOpponentLeft
	default:
		return err.Error()
	}
}

// ErrorFor maps an error text received from the relay back to its sentinel.
func ErrorFor(text string) error {
	switch text {
	case TextInvalidMessage:
		return apperror.ErrInvalidMessage
	case TextUnknownMessageType:
		return apperror.ErrUnknownMessageType
	case TextUnsupportedVersion:
		return apperror.ErrUnsupportedVersion
	case TextRoomNotFound:
		return apperror.ErrRoomNotFound
	case TextRoomFull:
		return apperror.ErrRoomFull
	case TextSelfJoin:
		return apperror.ErrSelfJoin
	case TextRoomCreateFailed:
		return apperror.ErrRoomCodeUnavailable
	case TextOpponentLeft:
		return apperror.ErrOpponentLeft
	default:
		return fmt.Errorf("relay error: %s", text)
	}
}
