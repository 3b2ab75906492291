package codec

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// The wire layout is described by experiment.proto. Decimals travel as
// strings so that no precision is lost; optional sub-messages and optional
// decimals are encoded only when present.

var errWireType = errors.New("unexpected wire type")

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendDecimal(b []byte, num protowire.Number, d decimal.Decimal) []byte {
	return appendString(b, num, experiment.FormatDecimal(d))
}

func appendOptDecimal(b []byte, num protowire.Number, d *decimal.Decimal) []byte {
	if d == nil {
		return b
	}
	return appendDecimal(b, num, *d)
}

func appendVector(b []byte, num protowire.Number, v experiment.Vector) []byte {
	var m []byte
	m = appendDecimal(m, 1, v.X())
	m = appendDecimal(m, 2, v.Y())
	return appendBytes(b, num, m)
}

func appendOptVector(b []byte, num protowire.Number, v *experiment.Vector) []byte {
	if v == nil {
		return b
	}
	return appendVector(b, num, *v)
}

func appendTimeRecord(b []byte, num protowire.Number, r experiment.TimeRecord) []byte {
	var m []byte
	m = appendDecimal(m, 1, r.Start)
	m = appendDecimal(m, 2, r.End)
	return appendBytes(b, num, m)
}

func marshalProto(exp *experiment.Experiment) []byte {
	var meta []byte
	meta = appendString(meta, 1, exp.Meta.RecordingTime.Format(time.RFC3339Nano))
	for _, l := range exp.Meta.PreambleLines {
		meta = appendString(meta, 2, l)
	}

	var b []byte
	b = appendBytes(b, 1, meta)
	for _, l := range exp.VariableLabels {
		b = appendString(b, 2, l)
	}
	for i := range exp.Trials {
		b = appendBytes(b, 3, marshalTrial(&exp.Trials[i]))
	}
	return b
}

func marshalTrial(t *experiment.Trial) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(t.ID))
	b = appendTimeRecord(b, 2, t.Time)
	for _, s := range t.Samples {
		var m []byte
		m = appendDecimal(m, 1, s.Time)
		m = appendEyeSample(m, 2, s.Left)
		m = appendEyeSample(m, 3, s.Right)
		m = appendOptVector(m, 4, s.Resolution)
		b = appendBytes(b, 3, m)
	}
	for _, r := range t.RawSamples {
		var m []byte
		m = appendDecimal(m, 1, r.Time)
		m = appendRawEye(m, 2, r.Left)
		m = appendRawEye(m, 3, r.Right)
		b = appendBytes(b, 4, m)
	}
	for _, e := range t.Events {
		b = appendBytes(b, 5, marshalEvent(e))
	}
	for _, f := range t.CameraFrames {
		var m []byte
		m = appendString(m, 1, f.Name)
		m = appendVarint(m, 2, uint64(f.Version))
		m = appendVarint(m, 3, uint64(f.Index))
		m = appendVarint(m, 4, f.CamTime)
		m = appendVarint(m, 5, f.SysTime)
		m = appendDecimal(m, 6, f.ProcessTime)
		m = appendOptDecimal(m, 7, f.EyelinkTime)
		b = appendBytes(b, 6, m)
	}
	for _, v := range t.Variables {
		b = appendString(b, 7, v)
	}

	names := make([]string, 0, len(t.Targets))
	for name := range t.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var entry []byte
		entry = appendString(entry, 1, name)
		for _, info := range t.Targets[name] {
			var m []byte
			m = appendDecimal(m, 1, info.Time)
			m = appendSint32(m, 2, info.Position[0])
			m = appendSint32(m, 3, info.Position[1])
			entry = appendBytes(entry, 2, m)
		}
		b = appendBytes(b, 8, entry)
	}
	return b
}

func appendEyeSample(b []byte, num protowire.Number, e *experiment.EyeSampleData) []byte {
	if e == nil {
		return b
	}
	var m []byte
	m = appendVector(m, 1, e.Position)
	m = appendDecimal(m, 2, e.Area)
	m = appendOptVector(m, 3, e.Velocity)
	m = appendVarint(m, 4, uint64(e.CR))
	return appendBytes(b, num, m)
}

func appendRawEye(b []byte, num protowire.Number, r experiment.RawEyeSampleData) []byte {
	var m []byte
	m = appendVector(m, 1, r.PupilPosition)
	m = appendDecimal(m, 2, r.PupilArea)
	m = appendVector(m, 3, r.PupilSize)
	m = appendVector(m, 4, r.CRPosition)
	m = appendDecimal(m, 5, r.CRArea)
	return appendBytes(b, num, m)
}

func marshalEvent(e experiment.EventRecord) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(e.Eye))
	b = appendTimeRecord(b, 2, e.Time)
	b = appendOptVector(b, 3, e.Resolution)
	b = appendVarint(b, 4, uint64(e.Info.Kind))
	if f := e.Info.Fixation; f != nil {
		var m []byte
		m = appendVector(m, 1, f.AveragePosition)
		m = appendDecimal(m, 2, f.AveragePupilArea)
		b = appendBytes(b, 5, m)
	}
	if s := e.Info.Saccade; s != nil {
		var m []byte
		m = appendOptVector(m, 1, s.StartPosition)
		m = appendOptVector(m, 2, s.EndPosition)
		m = appendOptDecimal(m, 3, s.MovementAngle)
		m = appendDecimal(m, 4, s.PeakVelocity)
		b = appendBytes(b, 6, m)
	}
	return b
}

// field is one decoded tag/value pair.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	bytes []byte
	value uint64
}

func (f field) wire(want protowire.Type) error {
	if f.typ != want {
		return fmt.Errorf("field %d: %w %d", f.num, errWireType, f.typ)
	}
	return nil
}

func (f field) str() (string, error) {
	if err := f.wire(protowire.BytesType); err != nil {
		return "", err
	}
	return string(f.bytes), nil
}

func (f field) decimal() (decimal.Decimal, error) {
	s, err := f.str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("field %d: %w", f.num, err)
	}
	return d, nil
}

func (f field) optDecimal() (*decimal.Decimal, error) {
	d, err := f.decimal()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (f field) uint() (uint64, error) {
	if err := f.wire(protowire.VarintType); err != nil {
		return 0, err
	}
	return f.value, nil
}

func (f field) uint32() (uint32, error) {
	v, err := f.uint()
	if err != nil {
		return 0, err
	}
	if v > 1<<32-1 {
		return 0, fmt.Errorf("field %d: value %d overflows uint32", f.num, v)
	}
	return uint32(v), nil
}

func (f field) int() (int, error) {
	v, err := f.uint32()
	return int(v), err
}

func (f field) sint32() (int32, error) {
	v, err := f.uint()
	if err != nil {
		return 0, err
	}
	return int32(protowire.DecodeZigZag(v)), nil
}

func (f field) message(fn func(field) error) error {
	if err := f.wire(protowire.BytesType); err != nil {
		return err
	}
	return walk(f.bytes, fn)
}

// walk calls fn for every field of the message in b. Fields with fixed
// width wire types are skipped.
func walk(b []byte, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeVector(f field) (experiment.Vector, error) {
	var v experiment.Vector
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			v[0], err = c.decimal()
		case 2:
			v[1], err = c.decimal()
		}
		return
	})
	return v, err
}

func decodeOptVector(f field) (*experiment.Vector, error) {
	v, err := decodeVector(f)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeTimeRecord(f field) (experiment.TimeRecord, error) {
	var r experiment.TimeRecord
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			r.Start, err = c.decimal()
		case 2:
			r.End, err = c.decimal()
		}
		return
	})
	return r, err
}

func unmarshalProto(b []byte, exp *experiment.Experiment) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			return f.message(func(c field) error {
				switch c.num {
				case 1:
					s, err := c.str()
					if err != nil {
						return err
					}
					t, err := time.Parse(time.RFC3339Nano, s)
					if err != nil {
						return err
					}
					exp.Meta.RecordingTime = t
				case 2:
					s, err := c.str()
					if err != nil {
						return err
					}
					exp.Meta.PreambleLines = append(exp.Meta.PreambleLines, s)
				}
				return nil
			})
		case 2:
			s, err := f.str()
			if err != nil {
				return err
			}
			exp.VariableLabels = append(exp.VariableLabels, s)
		case 3:
			t, err := decodeTrial(f)
			if err != nil {
				return fmt.Errorf("trial %d: %w", len(exp.Trials), err)
			}
			exp.Trials = append(exp.Trials, t)
		}
		return nil
	})
}

func decodeTrial(f field) (experiment.Trial, error) {
	t := experiment.NewTrial(0, decimal.Zero)
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			t.ID, err = c.uint32()
		case 2:
			t.Time, err = decodeTimeRecord(c)
		case 3:
			var s experiment.Sample
			if s, err = decodeSample(c); err == nil {
				t.Samples = append(t.Samples, s)
			}
		case 4:
			var r experiment.RawSample
			if r, err = decodeRawSample(c); err == nil {
				t.RawSamples = append(t.RawSamples, r)
			}
		case 5:
			var e experiment.EventRecord
			if e, err = decodeEvent(c); err == nil {
				t.Events = append(t.Events, e)
			}
		case 6:
			var fr experiment.CameraFrame
			if fr, err = decodeCameraFrame(c); err == nil {
				t.CameraFrames = append(t.CameraFrames, fr)
			}
		case 7:
			var s string
			if s, err = c.str(); err == nil {
				t.Variables = append(t.Variables, s)
			}
		case 8:
			err = decodeTargets(c, &t)
		}
		return
	})
	return t, err
}

func decodeSample(f field) (experiment.Sample, error) {
	var s experiment.Sample
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			s.Time, err = c.decimal()
		case 2:
			s.Left, err = decodeEyeSample(c)
		case 3:
			s.Right, err = decodeEyeSample(c)
		case 4:
			s.Resolution, err = decodeOptVector(c)
		}
		return
	})
	return s, err
}

func decodeEyeSample(f field) (*experiment.EyeSampleData, error) {
	e := &experiment.EyeSampleData{}
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			e.Position, err = decodeVector(c)
		case 2:
			e.Area, err = c.decimal()
		case 3:
			e.Velocity, err = decodeOptVector(c)
		case 4:
			var v int
			v, err = c.int()
			e.CR = experiment.CRStatus(v)
		}
		return
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func decodeRawSample(f field) (experiment.RawSample, error) {
	var r experiment.RawSample
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			r.Time, err = c.decimal()
		case 2:
			r.Left, err = decodeRawEye(c)
		case 3:
			r.Right, err = decodeRawEye(c)
		}
		return
	})
	return r, err
}

func decodeRawEye(f field) (experiment.RawEyeSampleData, error) {
	var r experiment.RawEyeSampleData
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			r.PupilPosition, err = decodeVector(c)
		case 2:
			r.PupilArea, err = c.decimal()
		case 3:
			r.PupilSize, err = decodeVector(c)
		case 4:
			r.CRPosition, err = decodeVector(c)
		case 5:
			r.CRArea, err = c.decimal()
		}
		return
	})
	return r, err
}

func decodeEvent(f field) (experiment.EventRecord, error) {
	var e experiment.EventRecord
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			var v int
			v, err = c.int()
			e.Eye = experiment.Eye(v)
		case 2:
			e.Time, err = decodeTimeRecord(c)
		case 3:
			e.Resolution, err = decodeOptVector(c)
		case 4:
			var v int
			v, err = c.int()
			e.Info.Kind = experiment.EventKind(v)
		case 5:
			fix := &experiment.FixationInfo{}
			err = c.message(func(cc field) (err error) {
				switch cc.num {
				case 1:
					fix.AveragePosition, err = decodeVector(cc)
				case 2:
					fix.AveragePupilArea, err = cc.decimal()
				}
				return
			})
			e.Info.Fixation = fix
		case 6:
			sacc := &experiment.SaccadeInfo{}
			err = c.message(func(cc field) (err error) {
				switch cc.num {
				case 1:
					sacc.StartPosition, err = decodeOptVector(cc)
				case 2:
					sacc.EndPosition, err = decodeOptVector(cc)
				case 3:
					sacc.MovementAngle, err = cc.optDecimal()
				case 4:
					sacc.PeakVelocity, err = cc.decimal()
				}
				return
			})
			e.Info.Saccade = sacc
		}
		return
	})
	return e, err
}

func decodeCameraFrame(f field) (experiment.CameraFrame, error) {
	var fr experiment.CameraFrame
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			fr.Name, err = c.str()
		case 2:
			var v int
			v, err = c.int()
			fr.Version = experiment.CameraFrameVersion(v)
		case 3:
			fr.Index, err = c.uint32()
		case 4:
			fr.CamTime, err = c.uint()
		case 5:
			fr.SysTime, err = c.uint()
		case 6:
			fr.ProcessTime, err = c.decimal()
		case 7:
			fr.EyelinkTime, err = c.optDecimal()
		}
		return
	})
	return fr, err
}

func decodeTargets(f field, t *experiment.Trial) error {
	var (
		name  string
		infos []experiment.TargetInfo
	)
	err := f.message(func(c field) (err error) {
		switch c.num {
		case 1:
			name, err = c.str()
		case 2:
			var info experiment.TargetInfo
			err = c.message(func(cc field) (err error) {
				switch cc.num {
				case 1:
					info.Time, err = cc.decimal()
				case 2:
					info.Position[0], err = cc.sint32()
				case 3:
					info.Position[1], err = cc.sint32()
				}
				return
			})
			infos = append(infos, info)
		}
		return
	})
	if err != nil {
		return err
	}
	// An entry without positions still names a target.
	if t.Targets == nil {
		t.Targets = make(map[string][]experiment.TargetInfo)
	}
	t.Targets[name] = append(t.Targets[name], infos...)
	if t.Targets[name] == nil {
		t.Targets[name] = []experiment.TargetInfo{}
	}
	return nil
}
