package reactoropts

import "github.com/HdrHistogram/hdrhistogram-go"

type optionStepHistogram struct {
	v *hdrhistogram.Histogram
}

// StepHistogram makes a Dispatcher record the duration of every dispatch step, in nanoseconds, into v.
func StepHistogram(v *hdrhistogram.Histogram) Option {
	return &optionStepHistogram{
		v: v,
	}
}

func (o *optionStepHistogram) Type() OptionType {
	return TypeStepHistogram
}

func (o *optionStepHistogram) Value() interface{} {
	return o.v
}
