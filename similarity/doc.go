// Package similarity scores concepts of a SubClassOf graph using
// information-content and depth based measures.
//
// Information content is intrinsic (Seco et al.): a concept with many
// descendants is less informative than a leaf, so no annotation corpus is
// needed. Four pairwise measures are supported:
//
//	lin            2*IC(mica) / (IC(a)+IC(b))
//	resnik         IC(mica)
//	jiang_conrath  1 - (IC(a)+IC(b)-2*IC(mica)) / 2
//	wu_palmer      2*depth(lcs) / (depth(a)+depth(b))
//
// where mica is the most informative common ancestor and lcs the deepest one.
// Groupwise scores reduce the pairwise matrix of two concept sets with one of
// bma, bmm, average, max or min.
//
// Pairwise results are memoized in a bounded LRU keyed by measure and the
// unordered pair.
package similarity
