package proto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gotd/td/bin"
)

func TestMsgsAckLayout(t *testing.T) {
	b, err := Encode(&MsgsAck{MsgIDs: []int64{0x0102030405060708}})
	if err != nil {
		t.Fatal(err)
	}
	want := "59b4d662" + "15c4b51c" + "01000000" + "0807060504030201"
	if got := hex.EncodeToString(b); got != want {
		t.Errorf("msgs_ack %s, want %s", got, want)
	}
}

func TestDecodeService(t *testing.T) {
	raw, _ := Encode(&Pong{MsgID: 10, PingID: 20})
	obj, ok, err := Decode(raw)
	if err != nil || !ok {
		t.Fatalf("pong not decoded: %v", err)
	}
	pong, isPong := obj.(*Pong)
	if !isPong || pong.MsgID != 10 || pong.PingID != 20 {
		t.Errorf("wrong pong %+v", obj)
	}

	var content bin.Buffer
	content.PutID(0x11223344)
	content.PutInt32(5)
	if _, ok, err := Decode(content.Buf); ok || err != nil {
		t.Errorf("content classified as service: %v %v", ok, err)
	}
	if _, _, err := Decode([]byte{1}); err == nil {
		t.Errorf("truncated body decoded")
	}
	if _, ok, err := Decode(raw[:8]); !ok || err == nil {
		t.Errorf("truncated pong decoded")
	}
}

func TestContainer(t *testing.T) {
	inner1, _ := Encode(&NewSessionCreated{FirstMsgID: 1, UniqueID: 2, ServerSalt: 3})
	inner2, _ := Encode(&RPCResult{ReqMsgID: 44, Result: []byte{1, 2, 3, 4}})
	raw, err := Encode(&MsgContainer{Messages: []Message{
		{ID: 101, SeqNo: 1, Body: inner1},
		{ID: 105, SeqNo: 3, Body: inner2},
	}})
	if err != nil {
		t.Fatal(err)
	}
	obj, ok, err := Decode(raw)
	if err != nil || !ok {
		t.Fatalf("container not decoded: %v", err)
	}
	c := obj.(*MsgContainer)
	if len(c.Messages) != 2 || c.Messages[1].ID != 105 || c.Messages[1].SeqNo != 3 {
		t.Fatalf("wrong container %+v", c)
	}
	obj, _, err = Decode(c.Messages[1].Body)
	if err != nil {
		t.Fatal(err)
	}
	res := obj.(*RPCResult)
	if res.ReqMsgID != 44 || !bytes.Equal(res.Result, []byte{1, 2, 3, 4}) {
		t.Errorf("wrong rpc result %+v", res)
	}

	// declared length past the end
	raw[len(raw)-len(inner2)-4] = 0xff
	if _, _, err := Decode(raw); err == nil {
		t.Errorf("broken container decoded")
	}
}

func TestUnpackResult(t *testing.T) {
	var payload bin.Buffer
	payload.PutID(0x99887766)
	payload.PutString("hello")
	packed, err := Encode(&GZIPPacked{Data: payload.Buf})
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnpackResult(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload.Buf) {
		t.Errorf("unpacked %x", got)
	}

	rpcErr, _ := Encode(&RPCError{Code: 420, Message: "FLOOD_WAIT_3"})
	_, err = UnpackResult(rpcErr)
	var e *RPCError
	if !errors.As(err, &e) || e.Code != 420 || e.Message != "FLOOD_WAIT_3" {
		t.Errorf("expected rpc error, got %v", err)
	}
}

func TestBadServerSalt(t *testing.T) {
	raw, _ := Encode(&BadServerSalt{BadMsgID: 8, BadMsgSeqNo: 3, Code: BadMsgServerSalt, NewSalt: -5})
	obj, _, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if s := obj.(*BadServerSalt); s.NewSalt != -5 || s.BadMsgID != 8 {
		t.Errorf("wrong bad_server_salt %+v", s)
	}
}

func TestContentRelated(t *testing.T) {
	for id, want := range map[uint32]bool{
		MsgsAckTypeID:             false,
		MsgContainerTypeID:        false,
		GZIPPackedTypeID:          false,
		PingTypeID:                true,
		PingDelayDisconnectTypeID: true,
		0x11223344:                true,
	} {
		if got := ContentRelated(id); got != want {
			t.Errorf("ContentRelated(%#x) = %v", id, got)
		}
	}
}
