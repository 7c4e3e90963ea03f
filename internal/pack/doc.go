// Package pack turns a populated staging root into boot media.
//
// Packaging runs only after every component has been built and placed. The
// staging root is archived into a newc cpio initrd at <dist>/iso/boot/initrd,
// and optionally the <dist>/iso tree is wrapped into a bootable ISO with
// grub-mkrescue. Both steps are external tools run through a
// runtime.Runner, strictly one after the other.
//
// Example usage:
//
//	res, err := pack.Run(ctx, rt, pack.Options{
//	    Rootfs:  "build/rootfs",
//	    Dist:    "build/dist",
//	    ISOName: "os.iso",
//	    ISO:     true,
//	})
package pack
