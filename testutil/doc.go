// Package testutil provides the sample MeSH fixture and graph builders shared
// by package tests.
//
// The sample descriptor file under loader/mesh/testdata holds a handful of
// descriptors, including the two cycles of the 2014 MeSH release, so tests
// exercise the same sanitizing path as a full load. Descriptor identifiers
// are exported as constants:
//
//	g := testutil.BuildGraph(t,
//		[2]string{testutil.Morals, testutil.SocialBehavior},
//		[2]string{testutil.SocialBehavior, testutil.Behavior},
//	)
//
// Labels and StubScorer stand in for the label source and the similarity
// engine when a test needs exact, hand-picked scores.
//
// Building a full overlay from the fixture lives in testutil/overlaytest,
// which imports overlay; testutil itself must not, so overlay tests can use
// it.
package testutil
