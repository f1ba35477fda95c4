package utils

func MustSliceConvert[S, D any](srcS []S, convert func(src S) D) []D {
	res := make([]D, 0, len(srcS))
	for _, src := range srcS {
		res = append(res, convert(src))
	}
	return res
}
