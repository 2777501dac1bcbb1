package proto

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/klauspost/compress/gzip"
)

// RPCResult#f35c6d01 req_msg_id:long result:Object
type RPCResult struct {
	ReqMsgID int64
	Result   []byte
}

func (*RPCResult) TypeID() uint32 { return RPCResultTypeID }

func (m *RPCResult) Encode(b *bin.Buffer) error {
	b.PutID(RPCResultTypeID)
	b.PutLong(m.ReqMsgID)
	b.Put(m.Result)
	return nil
}

func (m *RPCResult) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, RPCResultTypeID); err != nil {
		return err
	}
	if m.ReqMsgID, err = b.Long(); err != nil {
		return err
	}
	m.Result = append([]byte(nil), b.Buf...)
	b.Buf = b.Buf[:0]
	return nil
}

// RPCError#2144ca19 error_code:int error_message:string
type RPCError struct {
	Code    int32
	Message string
}

func (*RPCError) TypeID() uint32 { return RPCErrorTypeID }

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Encode(b *bin.Buffer) error {
	b.PutID(RPCErrorTypeID)
	b.PutInt32(e.Code)
	b.PutString(e.Message)
	return nil
}

func (e *RPCError) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, RPCErrorTypeID); err != nil {
		return err
	}
	if e.Code, err = b.Int32(); err != nil {
		return err
	}
	e.Message, err = b.String()
	return err
}

// GZIPPacked#3072cfa1 packed_data:string
type GZIPPacked struct {
	Data []byte
}

const maxUnpackedSize = 16 * 1024 * 1024

func (*GZIPPacked) TypeID() uint32 { return GZIPPackedTypeID }

func (g *GZIPPacked) Encode(b *bin.Buffer) error {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(g.Data); err != nil {
		return errors.Wrap(err, "gzip")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "gzip")
	}
	b.PutID(GZIPPackedTypeID)
	b.PutBytes(buf.Bytes())
	return nil
}

func (g *GZIPPacked) Decode(b *bin.Buffer) error {
	if err := consumeID(b, GZIPPackedTypeID); err != nil {
		return err
	}
	packed, err := b.Bytes()
	if err != nil {
		return err
	}
	r, err := gzip.NewReader(bytes.NewReader(packed))
	if err != nil {
		return errors.Wrap(err, "gzip")
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, maxUnpackedSize+1))
	if err != nil {
		return errors.Wrap(err, "gzip")
	}
	if len(data) > maxUnpackedSize {
		return errors.New("gzip: unpacked data too big")
	}
	g.Data = data
	return nil
}

// UnpackResult inflates gzip_packed results and turns rpc_error into an
// *RPCError.
func UnpackResult(result []byte) ([]byte, error) {
	for {
		id, err := TypeOf(result)
		if err != nil {
			return nil, errors.Wrap(err, "result")
		}
		switch id {
		case GZIPPackedTypeID:
			var g GZIPPacked
			if err := g.Decode(&bin.Buffer{Buf: result}); err != nil {
				return nil, err
			}
			result = g.Data
		case RPCErrorTypeID:
			e := &RPCError{}
			if err := e.Decode(&bin.Buffer{Buf: result}); err != nil {
				return nil, errors.Wrap(err, "rpc_error")
			}
			return nil, e
		default:
			return result, nil
		}
	}
}
